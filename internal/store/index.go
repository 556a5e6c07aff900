package store

import (
	"context"
	"time"
)

// Entry describes one stored result available for download.
type Entry struct {
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Created      time.Time `json:"created"`
}

// Index tracks download entries for stored results. Entries expire with the
// configured retention so downloads stop resolving once the bytes are swept.
type Index interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, name string) (Entry, bool, error)
}
