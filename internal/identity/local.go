package identity

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/Facundo-Gordillo/MYFINANCES/internal/errors"
	"github.com/Facundo-Gordillo/MYFINANCES/internal/uuid"
)

// Local is an in-process identity provider. Users register with an email and
// password; passwords are stored bcrypt-hashed. At most one user is signed in
// at a time, mirroring the single-session model of the client this engine
// serves.
type Local struct {
	mu      sync.Mutex
	users   map[string]localUser // keyed by normalized email
	current string               // signed-in user id, "" when signed out
	subs    map[int]*authSub
	nextSub int
}

type localUser struct {
	id           string
	passwordHash []byte
}

// authSub serializes deliveries so cancellation can wait out an in-flight
// callback.
type authSub struct {
	mu     sync.Mutex
	closed bool
	fn     func(userID string, signedIn bool)
}

func (s *authSub) deliver(userID string, signedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(userID, signedIn)
}

func (s *authSub) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// NewLocal creates an empty local identity provider.
func NewLocal() *Local {
	return &Local{
		users: make(map[string]localUser),
		subs:  make(map[int]*authSub),
	}
}

// Register creates a new user and returns its id. The new user is not
// signed in.
func (l *Local) Register(email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.users[email]; exists {
		return "", apperrors.ErrDuplicateEmail
	}
	id := uuid.New()
	l.users[email] = localUser{id: id, passwordHash: hash}
	return id, nil
}

// SignIn verifies the credentials, makes the user the current session, and
// returns the user id.
func (l *Local) SignIn(email, password string) (string, error) {
	email = normalizeEmail(email)

	l.mu.Lock()
	user, exists := l.users[email]
	l.mu.Unlock()

	if !exists {
		return "", apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	l.mu.Lock()
	changed := l.current != user.id
	l.current = user.id
	targets := l.subscribers()
	l.mu.Unlock()

	if changed {
		notify(targets, user.id, true)
	}
	return user.id, nil
}

// CurrentUser returns the signed-in user's id, or ok=false.
func (l *Local) CurrentUser() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.current != ""
}

// SignOut clears the current session.
func (l *Local) SignOut() error {
	l.mu.Lock()
	changed := l.current != ""
	l.current = ""
	targets := l.subscribers()
	l.mu.Unlock()

	if changed {
		notify(targets, "", false)
	}
	return nil
}

// Subscribe registers fn for auth-state changes, delivering the current state
// immediately.
func (l *Local) Subscribe(fn func(userID string, signedIn bool)) func() {
	sub := &authSub{fn: fn}

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = sub
	current := l.current
	l.mu.Unlock()

	sub.deliver(current, current != "")

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
		sub.close()
	}
}

// subscribers snapshots the subscriber set; the caller must hold l.mu.
func (l *Local) subscribers() []*authSub {
	targets := make([]*authSub, 0, len(l.subs))
	for _, sub := range l.subs {
		targets = append(targets, sub)
	}
	return targets
}

func notify(targets []*authSub, userID string, signedIn bool) {
	for _, sub := range targets {
		sub.deliver(userID, signedIn)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Compile-time check: Local implements the Provider contract.
var _ Provider = (*Local)(nil)
