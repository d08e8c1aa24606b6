// Package store persists generated models so they can be retrieved later by ID.
//
// A stored [Record] carries the model's export document (see package export)
// together with the metadata needed to regenerate or list it. Backends:
//   - file: JSON files in a directory, for the CLI
//   - mongo: a MongoDB collection, for the HTTP API
//
// # Usage
//
//	st, err := store.NewFileStore("")  // Uses $XDG_DATA_HOME/grunt/models/
//	rec := store.NewRecord(m, "deposit", doc)
//	st.Save(ctx, rec)
//
//	rec, err = st.Get(ctx, id)
//	if errors.Is(err, store.ErrNotFound) {
//	    // unknown model
//	}
package store

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/grunt/pkg/model"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a model does not exist.
	ErrNotFound = errors.New("model not found")
)

// Record is a stored model.
type Record struct {
	ID        string          `json:"id" bson:"_id"`
	Name      string          `json:"name" bson:"name"`
	Seed      uint64          `json:"seed" bson:"-"`
	Borders   int             `json:"borders" bson:"borders"`
	Rows      int             `json:"rows" bson:"rows"`
	Cols      int             `json:"cols" bson:"cols"`
	Warnings  []model.Warning `json:"warnings,omitempty" bson:"warnings,omitempty"`
	Invalid   int             `json:"invalid_layers" bson:"invalid_layers"`
	CreatedAt time.Time       `json:"created_at" bson:"created_at"`

	// Document is the full export (params and borders), uncompressed.
	Document []byte `json:"document" bson:"document"`
}

// NewRecord describes m for storage with its encoded export document.
func NewRecord(m *model.Model, name string, document []byte) *Record {
	return &Record{
		ID:        m.ID.String(),
		Name:      name,
		Seed:      m.Seed,
		Borders:   m.NumberOfBorders(),
		Rows:      m.Params.Rows(),
		Cols:      m.Params.Cols(),
		Warnings:  m.Warnings,
		Invalid:   len(m.Warnings),
		CreatedAt: time.Now().UTC(),
		Document:  document,
	}
}

// Summary returns a copy of r without the document.
func (r *Record) Summary() *Record {
	s := *r
	s.Document = nil
	return &s
}

// Store is the interface for model storage backends.
type Store interface {
	// Save stores a record, replacing any record with the same ID.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns summaries of all records, newest first.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}
