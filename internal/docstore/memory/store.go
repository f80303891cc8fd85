// Package memory provides an in-memory document store. It is the default
// store for tests and ephemeral runs, and the reference implementation of the
// docstore contract.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/uuid"
)

// Store keeps collections in memory and is safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	collections map[string]map[string]docstore.Document
	lastStamp   time.Time
	hub         *docstore.Hub
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]docstore.Document),
		hub:         docstore.NewHub(),
	}
}

// Read returns the document at path, or docstore.ErrNotFound.
func (s *Store) Read(ctx context.Context, path string) (docstore.Document, error) {
	collection, id, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return docstore.Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return copyDocument(doc), nil
}

// Write replaces the fields of the document at path, creating it when absent.
func (s *Store) Write(ctx context.Context, path string, fields map[string]any) error {
	collection, id, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		doc = docstore.Document{ID: id, CreatedAt: s.nextStamp()}
	}
	doc.Fields = copyFields(fields)
	s.put(collection, doc)
	snap := s.snapshot(collection)
	s.mu.Unlock()

	s.hub.Publish(collection, snap)
	return nil
}

// Update merges fields into an existing document, or returns ErrNotFound.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.merge(path, fields, nil)
}

// Apply merges fields into an existing document only while the precondition
// holds; returns docstore.ErrConflict otherwise.
func (s *Store) Apply(ctx context.Context, path string, fields map[string]any, pre docstore.Precondition) error {
	return s.merge(path, fields, &pre)
}

func (s *Store) merge(path string, fields map[string]any, pre *docstore.Precondition) error {
	collection, id, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return docstore.ErrNotFound
	}
	if pre != nil && doc.Fields[pre.Field] != pre.Equals {
		s.mu.Unlock()
		return docstore.ErrConflict
	}
	doc.Fields = copyFields(doc.Fields)
	for k, v := range fields {
		doc.Fields[k] = v
	}
	s.put(collection, doc)
	snap := s.snapshot(collection)
	s.mu.Unlock()

	s.hub.Publish(collection, snap)
	return nil
}

// Delete removes the document at path. Deleting a missing document is a
// no-op.
func (s *Store) Delete(ctx context.Context, path string) error {
	collection, id, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.collections[collection][id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.collections[collection], id)
	snap := s.snapshot(collection)
	s.mu.Unlock()

	s.hub.Publish(collection, snap)
	return nil
}

// Append adds a new document with a store-assigned id and a monotonic
// creation timestamp.
func (s *Store) Append(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.New()

	s.mu.Lock()
	doc := docstore.Document{
		ID:        id,
		Fields:    copyFields(fields),
		CreatedAt: s.nextStamp(),
	}
	s.put(collection, doc)
	snap := s.snapshot(collection)
	s.mu.Unlock()

	s.hub.Publish(collection, snap)
	return id, nil
}

// List returns the current contents of a collection.
func (s *Store) List(ctx context.Context, collection string) (docstore.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(collection), nil
}

// Subscribe opens a live subscription. The callback receives the current
// snapshot before Subscribe returns, then a fresh snapshot after every
// mutation.
func (s *Store) Subscribe(ctx context.Context, collection string, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	s.mu.Lock()
	snap := s.snapshot(collection)
	s.mu.Unlock()

	cancel := s.hub.Subscribe(collection, fn)
	fn(snap, nil)
	return cancel, nil
}

// InjectError simulates a transport failure on a collection's live
// subscriptions. Subscribers keep their last known good snapshot. Test seam.
func (s *Store) InjectError(collection string, err error) {
	s.hub.PublishError(collection, err)
}

// put stores a document; the caller must hold s.mu.
func (s *Store) put(collection string, doc docstore.Document) {
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]docstore.Document)
	}
	s.collections[collection][doc.ID] = doc
}

// nextStamp returns a strictly increasing timestamp; the caller must hold
// s.mu. Strict monotonicity keeps ordering deterministic even when two
// appends land within the clock's resolution.
func (s *Store) nextStamp() time.Time {
	now := time.Now()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

// snapshot builds a copy of a collection ordered by creation time; the caller
// must hold s.mu.
func (s *Store) snapshot(collection string) docstore.Snapshot {
	docs := s.collections[collection]
	snap := make(docstore.Snapshot, 0, len(docs))
	for _, doc := range docs {
		snap = append(snap, copyDocument(doc))
	}
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].CreatedAt.Equal(snap[j].CreatedAt) {
			return snap[i].ID < snap[j].ID
		}
		return snap[i].CreatedAt.Before(snap[j].CreatedAt)
	})
	return snap
}

func copyDocument(doc docstore.Document) docstore.Document {
	doc.Fields = copyFields(doc.Fields)
	return doc
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Compile-time check: Store implements the docstore contract.
var _ docstore.Store = (*Store)(nil)
