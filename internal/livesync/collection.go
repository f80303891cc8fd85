// Package livesync keeps a typed local mirror of one document store
// collection in sync with its live subscription.
package livesync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/logger"
)

// DecodeFunc turns a raw store document into a typed record.
type DecodeFunc[T any] func(docstore.Document) (T, error)

// Collection mirrors one store collection as typed records. Every change
// event replaces the whole mirror (snapshots, not diffs), which keeps
// consumer logic trivial at the cost of re-decoding the set per update.
//
// A transport error on the subscription is retained as an explicit error
// state while the last known good snapshot stays readable; consumer data is
// never cleared by a transient failure.
type Collection[T any] struct {
	store  docstore.Store
	decode DecodeFunc[T]
	log    *zap.SugaredLogger

	// emitMu serializes snapshot handling. Stop acquires it after marking
	// the collection stopped, so when Stop returns no emission is in flight
	// and none can start. Change callbacks therefore must not call Stop.
	emitMu sync.Mutex

	mu       sync.Mutex
	started  bool
	stopped  bool
	cancel   docstore.CancelFunc
	snapshot []T
	err      error
	onChange []func()
}

// NewCollection creates a Collection that decodes documents with decode.
func NewCollection[T any](store docstore.Store, decode DecodeFunc[T]) *Collection[T] {
	return &Collection[T]{
		store:  store,
		decode: decode,
		log:    logger.Named("livesync"),
	}
}

// OnChange registers fn to run after every applied snapshot and after a
// subscription error is recorded. Callbacks registered after Start begin
// firing with the next snapshot.
func (c *Collection[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// Start opens the live subscription for the given collection path. A
// Collection starts at most once; restarting requires a new instance.
func (c *Collection[T]) Start(ctx context.Context, collectionPath string) error {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return apperrors.WithMessage(apperrors.ErrInternalServer, "collection sync already started")
	}
	c.started = true
	c.mu.Unlock()

	cancel, err := c.store.Subscribe(ctx, collectionPath, c.handle)
	if err != nil {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()
		return apperrors.Wrap(apperrors.ErrSubscriptionError, err)
	}

	c.mu.Lock()
	if c.stopped {
		// Stop raced with Start; tear the subscription down immediately.
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.cancel = cancel
	c.mu.Unlock()
	return nil
}

// Stop cancels the subscription. It is idempotent, safe to call without a
// prior (or completed) Start, and safe to call concurrently with an in-flight
// emission: when Stop returns, no further change callbacks fire.
func (c *Collection[T]) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Wait out any emission that was already past the stopped check.
	c.emitMu.Lock()
	c.emitMu.Unlock() //nolint:staticcheck // empty critical section is the barrier
}

// Snapshot returns a copy of the last known good mirror.
func (c *Collection[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.snapshot))
	copy(out, c.snapshot)
	return out
}

// Err returns the current sync-error state, or nil while the subscription is
// healthy.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// handle processes one subscription event.
func (c *Collection[T]) handle(snap docstore.Snapshot, err error) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.err = apperrors.Wrap(apperrors.ErrSubscriptionError, err)
		c.log.Warnw("collection subscription failed, retaining last snapshot",
			"error", err, "records", len(c.snapshot))
	} else {
		records := make([]T, 0, len(snap))
		for _, doc := range snap {
			record, decodeErr := c.decode(doc)
			if decodeErr != nil {
				// A malformed document must not poison the whole snapshot.
				c.log.Warnw("skipping undecodable document", "id", doc.ID, "error", decodeErr)
				continue
			}
			records = append(records, record)
		}
		c.snapshot = records
		c.err = nil
	}

	callbacks := make([]func(), len(c.onChange))
	copy(callbacks, c.onChange)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
