package common

import (
	"time"

	"github.com/google/uuid"

	"github.com/NamanBalaji/urlconf/internal/status"
)

// Record describes one finished open-request. Bodies are never recorded.
// Kept here so that the fetch and repository packages can share it.
type Record struct {
	ID          uuid.UUID     `json:"id"`
	URL         string        `json:"url"`
	Target      string        `json:"target,omitempty"`
	Scheme      string        `json:"scheme,omitempty"`
	Status      status.Status `json:"status"`
	StatusCode  int           `json:"status_code,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	ContentType string        `json:"content_type,omitempty"`
	Size        int64         `json:"size"`
	Elapsed     time.Duration `json:"elapsed"`
	Category    string        `json:"category,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Stats contains aggregated statistics across journal records
type Stats struct {
	Total           int
	Succeeded       int
	Failed          int
	ParseErrors     int
	TransportErrors int
	ResponseErrors  int
	BytesFetched    int64
}

// Summarize aggregates records.
func Summarize(records []*Record) Stats {
	var s Stats

	for _, r := range records {
		s.Total++

		if r.Status != status.Failed {
			s.Succeeded++
			s.BytesFetched += r.Size

			continue
		}

		s.Failed++

		switch r.Category {
		case "PARSE":
			s.ParseErrors++
		case "TRANSPORT":
			s.TransportErrors++
		case "RESPONSE":
			s.ResponseErrors++
		}
	}

	return s
}
