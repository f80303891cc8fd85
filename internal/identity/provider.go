// Package identity defines the identity provider contract the ledger engine
// depends on, plus a local implementation with bcrypt-hashed credentials and
// JWT token issuing for the HTTP surface.
package identity

// Provider yields the currently signed-in user, if any, and notifies
// subscribers of auth-state changes.
type Provider interface {
	// CurrentUser returns the signed-in user's id, or ok=false when nobody
	// is signed in.
	CurrentUser() (userID string, ok bool)
	// Subscribe registers fn for auth-state changes. fn is invoked
	// immediately with the current state, then on every transition. The
	// returned cancel function is idempotent; once it returns, fn never
	// fires again.
	Subscribe(fn func(userID string, signedIn bool)) (cancel func())
	// SignOut clears the current session.
	SignOut() error
}
