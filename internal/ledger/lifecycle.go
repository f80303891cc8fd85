package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/logger"
)

// State is the coordinator's position in the session lifecycle.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// StoreFactory builds a Store for a user. Swappable in tests.
type StoreFactory func(ctx context.Context, userID string) (*Store, error)

// Coordinator ties session transitions to Store lifecycles. Sign-in builds a
// Store for the user; sign-out (or a provider failure) disposes it; a switch
// to a different user fully disposes the old Store before the new one is
// constructed, so no two Stores ever coexist.
type Coordinator struct {
	gate    *SessionGate
	factory StoreFactory
	log     *zap.SugaredLogger

	mu      sync.Mutex
	state   State
	userID  string
	store   *Store
	cancel  func()
	lastErr error
}

// NewCoordinator creates a Coordinator building Stores over ds.
func NewCoordinator(gate *SessionGate, ds docstore.Store) *Coordinator {
	return &Coordinator{
		gate: gate,
		factory: func(ctx context.Context, userID string) (*Store, error) {
			return NewStore(ctx, ds, userID)
		},
		log:   logger.Named("lifecycle"),
		state: StateUnauthenticated,
	}
}

// NewCoordinatorWithFactory is NewCoordinator with a custom store factory.
func NewCoordinatorWithFactory(gate *SessionGate, factory StoreFactory) *Coordinator {
	return &Coordinator{
		gate:    gate,
		factory: factory,
		log:     logger.Named("lifecycle"),
		state:   StateUnauthenticated,
	}
}

// Start subscribes to session transitions. The current session state is
// processed before Start returns.
func (c *Coordinator) Start(ctx context.Context) {
	cancel := c.gate.Observe(func(userID string, signedIn bool) {
		c.transition(ctx, userID, signedIn)
	})

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}

// transition applies one session emission. Transitions are driven solely by
// the gate; nothing else mutates the lifecycle.
func (c *Coordinator) transition(ctx context.Context, userID string, signedIn bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !signedIn {
		c.disposeLocked()
		return
	}

	if c.state == StateAuthenticated && c.userID == userID {
		return
	}

	// A different user or a fresh sign-in: the old store must be fully
	// disposed (all subscriptions cancelled) before the new one opens.
	c.disposeLocked()

	c.state = StateAuthenticating
	c.userID = userID

	store, err := c.factory(ctx, userID)
	if err != nil {
		c.log.Errorw("failed to open ledger store", "user", userID, "error", err)
		c.lastErr = err
		c.state = StateUnauthenticated
		c.userID = ""
		return
	}

	c.store = store
	c.lastErr = nil
	c.state = StateAuthenticated
	c.log.Infow("ledger store opened", "user", userID)
}

// disposeLocked tears down the current store; the caller must hold c.mu.
func (c *Coordinator) disposeLocked() {
	if c.store != nil {
		c.store.Close()
		c.log.Infow("ledger store closed", "user", c.userID)
	}
	c.store = nil
	c.userID = ""
	c.state = StateUnauthenticated
}

// Store returns the active user's Store, or ok=false when signed out.
func (c *Coordinator) Store() (*Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store, c.store != nil
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error from the most recent failed store construction, or
// nil.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close cancels the session subscription and disposes the active store.
func (c *Coordinator) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.mu.Lock()
	c.disposeLocked()
	c.mu.Unlock()
}
