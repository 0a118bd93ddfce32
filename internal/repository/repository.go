package repository

import (
	"github.com/google/uuid"

	"github.com/NamanBalaji/urlconf/internal/common"
)

// Repository stores the journal of finished open-requests.
type Repository interface {
	Save(record *common.Record) error
	Find(id uuid.UUID) (*common.Record, error)
	FindAll() ([]*common.Record, error)
	Delete(id uuid.UUID) error
	Clear() error
}
