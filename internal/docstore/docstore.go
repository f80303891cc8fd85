// Package docstore defines the remote document store contract the ledger
// engine is built against: a hierarchical, per-user keyed collection store
// supporting point reads, point writes, appends with server-assigned
// timestamps, and live full-snapshot subscriptions.
//
// Two implementations ship with the module: an in-memory store (memory) used
// for tests and ephemeral runs, and a GORM-backed store (gormstore) for
// sqlite/postgres persistence.
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned by point reads and updates when no document
	// exists at the given path.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrConflict is returned by Apply when the precondition no longer holds.
	ErrConflict = errors.New("docstore: precondition failed")
)

// Document is a single stored record. CreatedAt is assigned by the store when
// the document is appended and is monotonic within its collection.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
}

// Snapshot is a complete, self-consistent replacement of a collection's
// contents. Subscribers always receive whole snapshots, never diffs.
type Snapshot []Document

// SnapshotFunc receives collection snapshots. A non-nil err signals a broken
// subscription; snap is nil in that case and the previous snapshot remains
// the last known good state. Callbacks must not mutate the store
// synchronously.
type SnapshotFunc func(snap Snapshot, err error)

// CancelFunc tears down a subscription. It is idempotent, and once it
// returns, the callback is guaranteed not to fire again.
type CancelFunc func()

// Precondition guards a conditional write: Apply succeeds only while the
// stored value of Field still equals Equals. Values must be comparable
// scalars (the ledger stores decimals as strings for this reason).
type Precondition struct {
	Field  string
	Equals any
}

// Store is the remote document store contract.
type Store interface {
	// Read returns the document at path, or ErrNotFound.
	Read(ctx context.Context, path string) (Document, error)
	// Write replaces the fields of the document at path, creating it when
	// absent.
	Write(ctx context.Context, path string, fields map[string]any) error
	// Update merges fields into an existing document, or returns ErrNotFound.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Apply merges fields into an existing document only while the
	// precondition holds; returns ErrConflict otherwise.
	Apply(ctx context.Context, path string, fields map[string]any, pre Precondition) error
	// Delete removes the document at path. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, path string) error
	// Append adds a new document to a collection with a store-assigned id
	// and a monotonic creation timestamp, returning the new id.
	Append(ctx context.Context, collection string, fields map[string]any) (string, error)
	// List returns the current contents of a collection.
	List(ctx context.Context, collection string) (Snapshot, error)
	// Subscribe opens a live subscription to a collection. The callback
	// receives the current snapshot immediately, then a fresh snapshot after
	// every mutation of the collection.
	Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (CancelFunc, error)
}

// Collection paths are namespaced per user.
func AccountsCollection(userID string) string     { return "users/" + userID + "/accounts" }
func CategoriesCollection(userID string) string   { return "users/" + userID + "/categories" }
func TransactionsCollection(userID string) string { return "users/" + userID + "/transactions" }

// DocumentPath joins a collection path and a document id.
func DocumentPath(collection, id string) string { return collection + "/" + id }

// SplitDocumentPath splits a document path into its collection path and
// document id.
func SplitDocumentPath(path string) (collection, id string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", errors.New("docstore: invalid document path " + path)
	}
	return path[:i], path[i+1:], nil
}
