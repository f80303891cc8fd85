// Package ledger implements the ledger synchronization and
// balance-consistency engine: per-user live mirrors of the account, category
// and transaction collections, the balance write path, summary projections,
// and the session-driven lifecycle that ties them together.
package ledger

import (
	"go.uber.org/zap"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/identity"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/logger"
)

// UserFunc resolves the user on whose behalf an operation runs. It returns
// ok=false when nobody is signed in.
type UserFunc func() (userID string, ok bool)

// StaticUser returns a UserFunc pinned to a fixed user id. The HTTP surface
// uses it after resolving a bearer token.
func StaticUser(userID string) UserFunc {
	return func() (string, bool) { return userID, userID != "" }
}

// SessionGate wraps an identity provider. It performs no ledger operations
// itself; it only answers who is signed in and relays auth-state changes.
// Provider failures surface as "signed out" — retry policy belongs to the
// provider, not here.
type SessionGate struct {
	provider identity.Provider
	log      *zap.SugaredLogger
}

// NewSessionGate creates a SessionGate over the given provider.
func NewSessionGate(provider identity.Provider) *SessionGate {
	return &SessionGate{
		provider: provider,
		log:      logger.Named("session"),
	}
}

// UserID returns the signed-in user's id, or ok=false.
func (g *SessionGate) UserID() (string, bool) {
	return g.provider.CurrentUser()
}

// Observe registers fn for auth-state transitions. fn fires immediately with
// the current state. The returned cancel function is idempotent and
// guarantees fn does not fire after it returns.
func (g *SessionGate) Observe(fn func(userID string, signedIn bool)) (cancel func()) {
	return g.provider.Subscribe(fn)
}

// SignOut clears the authentication session. A provider failure is logged
// and otherwise ignored: the observable outcome either way is a signed-out
// session.
func (g *SessionGate) SignOut() {
	if err := g.provider.SignOut(); err != nil {
		g.log.Warnw("sign-out reported an error", "error", err)
	}
}
