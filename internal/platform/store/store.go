// Package store defines the company-scoped document store the engine persists into.
// Every record lives in a (company, collection, key) cell holding a JSON document, so
// the core stays agnostic of the backing technology.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested document does not exist.
var ErrNotFound = errors.New("store: document not found")

// ErrConflict indicates a concurrent update invalidated an Update attempt.
var ErrConflict = errors.New("store: concurrent update conflict")

// UpdateFunc transforms the current document (nil when absent) into its replacement.
// Returning ErrNotFound aborts the update without writing.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a key-value document store keyed by company.
type Store interface {
	// Get returns the document at (company, collection, key).
	Get(ctx context.Context, companyID, collection, key string) ([]byte, error)
	// Put writes the document wholesale. A single Put is atomic.
	Put(ctx context.Context, companyID, collection, key string, doc []byte) error
	// Delete removes the document. Deleting a missing document returns ErrNotFound.
	Delete(ctx context.Context, companyID, collection, key string) error
	// List returns every document in the collection, ordered by key.
	List(ctx context.Context, companyID, collection string) ([][]byte, error)
	// Update applies fn to the current document under a per-cell serialisation
	// guarantee, so read-modify-write sequences never act on stale state.
	Update(ctx context.Context, companyID, collection, key string, fn UpdateFunc) error
}

// Collection names shared by the services. Centralised so store drivers and
// maintenance tooling agree on the layout.
const (
	CollectionAccounts    = "coa"
	CollectionTB          = "tb"
	CollectionMappings    = "mappings"
	CollectionRates       = "fxrates"
	CollectionAudit       = "audit"
	CollectionSeries      = "series"
	CollectionAdjustments = "adjustments"
)
