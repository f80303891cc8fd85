// Package gormstore provides a document store persisted through GORM.
// Documents live in a single path-keyed table with their fields serialized as
// JSON; sqlite backs development and tests, postgres backs deployments. Live
// subscriptions are served by the same in-process fanout hub the memory store
// uses, fed with a fresh snapshot after every mutation.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/uuid"
)

// document is the persisted row shape.
type document struct {
	Path       string `gorm:"primaryKey"`
	Collection string `gorm:"index;not null"`
	DocID      string `gorm:"not null"`
	Fields     string `gorm:"not null"`
	CreatedAt  time.Time
}

func (document) TableName() string { return "documents" }

// Store is a docstore.Store backed by a relational database.
type Store struct {
	db  *gorm.DB
	hub *docstore.Hub

	mu        sync.Mutex
	lastStamp time.Time
}

// OpenSQLite opens (and migrates) a sqlite-backed store at the given path.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*Store, error) {
	return open(sqlite.Open(path))
}

// OpenPostgres opens (and migrates) a postgres-backed store.
func OpenPostgres(dsn string) (*Store, error) {
	return open(postgres.Open(dsn))
}

func open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, err
	}
	return &Store{db: db, hub: docstore.NewHub()}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Read returns the document at path, or docstore.ErrNotFound.
func (s *Store) Read(ctx context.Context, path string) (docstore.Document, error) {
	var row document
	err := s.db.WithContext(ctx).First(&row, "path = ?", path).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return decodeRow(row)
}

// Write replaces the fields of the document at path, creating it when absent.
func (s *Store) Write(ctx context.Context, path string, fields map[string]any) error {
	collection, id, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row document
		findErr := tx.First(&row, "path = ?", path).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			row = document{
				Path:       path,
				Collection: collection,
				DocID:      id,
				Fields:     string(payload),
				CreatedAt:  s.nextStamp(),
			}
			return tx.Create(&row).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&row).Update("fields", string(payload)).Error
		}
	})
	if err != nil {
		return err
	}

	return s.publish(ctx, collection)
}

// Update merges fields into an existing document, or returns ErrNotFound.
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.merge(ctx, path, fields, nil)
}

// Apply merges fields into an existing document only while the precondition
// holds; returns docstore.ErrConflict otherwise.
func (s *Store) Apply(ctx context.Context, path string, fields map[string]any, pre docstore.Precondition) error {
	return s.merge(ctx, path, fields, &pre)
}

func (s *Store) merge(ctx context.Context, path string, fields map[string]any, pre *docstore.Precondition) error {
	collection, _, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row document
		findErr := tx.First(&row, "path = ?", path).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return docstore.ErrNotFound
		}
		if findErr != nil {
			return findErr
		}

		current := make(map[string]any)
		if err := json.Unmarshal([]byte(row.Fields), &current); err != nil {
			return err
		}
		if pre != nil && current[pre.Field] != pre.Equals {
			return docstore.ErrConflict
		}
		for k, v := range fields {
			current[k] = v
		}
		payload, err := json.Marshal(current)
		if err != nil {
			return err
		}
		return tx.Model(&row).Update("fields", string(payload)).Error
	})
	if err != nil {
		return err
	}

	return s.publish(ctx, collection)
}

// Delete removes the document at path. Deleting a missing document is a
// no-op.
func (s *Store) Delete(ctx context.Context, path string) error {
	collection, _, err := docstore.SplitDocumentPath(path)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&document{}, "path = ?", path).Error; err != nil {
		return err
	}
	return s.publish(ctx, collection)
}

// Append adds a new document with a store-assigned id and a monotonic
// creation timestamp.
func (s *Store) Append(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.New()
	payload, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	row := document{
		Path:       docstore.DocumentPath(collection, id),
		Collection: collection,
		DocID:      id,
		Fields:     string(payload),
		CreatedAt:  s.nextStamp(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}

	if err := s.publish(ctx, collection); err != nil {
		return "", err
	}
	return id, nil
}

// List returns the current contents of a collection.
func (s *Store) List(ctx context.Context, collection string) (docstore.Snapshot, error) {
	return s.snapshot(ctx, collection)
}

// Subscribe opens a live subscription. The callback receives the current
// snapshot before Subscribe returns, then a fresh snapshot after every
// mutation.
func (s *Store) Subscribe(ctx context.Context, collection string, fn docstore.SnapshotFunc) (docstore.CancelFunc, error) {
	snap, err := s.snapshot(ctx, collection)
	if err != nil {
		return nil, err
	}

	cancel := s.hub.Subscribe(collection, fn)
	fn(snap, nil)
	return cancel, nil
}

// publish reloads a collection and fans it out. A reload failure is
// delivered to subscribers as a subscription error; they retain their last
// known good snapshot.
func (s *Store) publish(ctx context.Context, collection string) error {
	snap, err := s.snapshot(ctx, collection)
	if err != nil {
		s.hub.PublishError(collection, err)
		return nil
	}
	s.hub.Publish(collection, snap)
	return nil
}

func (s *Store) snapshot(ctx context.Context, collection string) (docstore.Snapshot, error) {
	var rows []document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at, doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	snap := make(docstore.Snapshot, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		snap = append(snap, doc)
	}
	return snap, nil
}

// nextStamp returns a strictly increasing timestamp so within-collection
// ordering stays deterministic under the clock's resolution.
func (s *Store) nextStamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if !now.After(s.lastStamp) {
		now = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = now
	return now
}

func decodeRow(row document) (docstore.Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(row.Fields), &fields); err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{
		ID:        row.DocID,
		Fields:    fields,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Compile-time check: Store implements the docstore contract.
var _ docstore.Store = (*Store)(nil)
