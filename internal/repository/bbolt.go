package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/NamanBalaji/urlconf/internal/common"
)

const (
	fetchesBucket  = "fetches"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

var (
	// ErrRecordNotFound is returned when a record cannot be found
	ErrRecordNotFound = errors.New("record not found")
)

// BboltRepository implements Repository on a bbolt file
type BboltRepository struct {
	db *bbolt.DB
}

// NewBboltRepository creates a new bbolt repository, creating the parent
// directory if needed
func NewBboltRepository(dbPath string) (*BboltRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	options := &bbolt.Options{
		Timeout: 1 * time.Second,
	}

	db, err := bbolt.Open(dbPath, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &BboltRepository{
		db: db,
	}

	if err := repo.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// initialize sets up buckets and schema
func (r *BboltRepository) initialize() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(fetchesBucket))
		if err != nil {
			return fmt.Errorf("failed to create fetches bucket: %w", err)
		}

		metadataBucket, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		versionBytes := []byte(fmt.Sprintf("%d", schemaVersion))
		err = metadataBucket.Put([]byte("schema_version"), versionBytes)
		if err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}

		return nil
	})
}

// Save persists a record to storage
func (r *BboltRepository) Save(record *common.Record) error {
	if record == nil {
		return errors.New("cannot save nil record")
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", fetchesBucket)
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}

		err = bucket.Put([]byte(record.ID.String()), data)
		if err != nil {
			return fmt.Errorf("failed to save record: %w", err)
		}

		return nil
	})
}

// Find retrieves a record by ID
func (r *BboltRepository) Find(id uuid.UUID) (*common.Record, error) {
	if id == uuid.Nil {
		return nil, errors.New("record ID cannot be empty")
	}

	var data []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", fetchesBucket)
		}

		// bbolt memory is only valid inside the transaction
		if v := bucket.Get([]byte(id.String())); v != nil {
			data = append([]byte(nil), v...)
			return nil
		}

		return ErrRecordNotFound
	})

	if err != nil {
		return nil, err
	}

	record := &common.Record{}

	if err := json.Unmarshal(data, record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return record, nil
}

// FindAll retrieves all records, oldest first
func (r *BboltRepository) FindAll() ([]*common.Record, error) {
	var records []*common.Record

	err := r.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", fetchesBucket)
		}

		return bucket.ForEach(func(k, v []byte) error {
			record := &common.Record{}

			if err := json.Unmarshal(v, record); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}

			records = append(records, record)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	return records, nil
}

// Delete removes a record
func (r *BboltRepository) Delete(id uuid.UUID) error {
	if id == uuid.Nil {
		return errors.New("record ID cannot be empty")
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(fetchesBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", fetchesBucket)
		}

		if bucket.Get([]byte(id.String())) == nil {
			return ErrRecordNotFound
		}

		return bucket.Delete([]byte(id.String()))
	})
}

// Clear removes every record
func (r *BboltRepository) Clear() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(fetchesBucket)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to drop fetches bucket: %w", err)
		}

		_, err := tx.CreateBucket([]byte(fetchesBucket))

		return err
	})
}

// Close closes the database
func (r *BboltRepository) Close() error {
	return r.db.Close()
}
