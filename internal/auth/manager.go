// Package auth owns the session lifecycle: token, user identity and the
// loading flag, persisted across restarts through the key-value store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"rtodo/internal/service"
	"rtodo/internal/storage"
)

// Fixed keys for the persisted session, shared with any other reader of the
// stored identity.
const (
	TokenKey = "userToken"
	UserKey  = "userEmail"
)

// ErrNotLoggedIn is returned when an operation requires an authenticated
// session and there is none.
var ErrNotLoggedIn = errors.New("not logged in")

// Manager is the single owner of session state for the running process.
// Dependents read through its accessors and subscribe for changes; nobody
// writes the state directly.
type Manager struct {
	api   service.Service
	store *storage.KV

	mu      sync.Mutex
	token   string
	user    string
	loading bool
	subs    map[int]func()
	nextSub int
}

// NewManager creates a Manager. The session starts in the loading state until
// Load has run.
func NewManager(api service.Service, store *storage.KV) *Manager {
	return &Manager{
		api:     api,
		store:   store,
		loading: true,
		subs:    make(map[int]func()),
	}
}

// Load reads the persisted session. It always terminates the loading state:
// a store read error is logged and treated as an absent session, never
// surfaced.
func (m *Manager) Load(ctx context.Context) {
	token, ok, err := m.store.Get(ctx, TokenKey)
	if err != nil {
		slog.Warn("session load failed", "key", TokenKey, "err", err)
		token, ok = "", false
	}
	user, userOK, err := m.store.Get(ctx, UserKey)
	if err != nil {
		slog.Warn("session load failed", "key", UserKey, "err", err)
		user, userOK = "", false
	}

	m.mu.Lock()
	if ok {
		m.token = token
	}
	if userOK {
		m.user = user
	}
	m.loading = false
	m.mu.Unlock()
	m.notify()
}

// Token returns the current session token, or "" when unauthenticated.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the current user identifier, or "" when unknown.
func (m *Manager) User() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Loading reports whether the persisted session is still being read.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Authenticated reports whether a token is present.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

// Subscribe registers fn to run after every session change. The returned
// function unsubscribes.
func (m *Manager) Subscribe(fn func()) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SignIn exchanges credentials for a token and persists the session. The
// in-memory state only changes after the token and identity are stored, so a
// failed operation never leaves the session half-updated.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	token, err := m.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, TokenKey, token); err != nil {
		return err
	}
	if err := m.store.Set(ctx, UserKey, email); err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.user = email
	m.mu.Unlock()
	m.notify()
	slog.Debug("signed in", "user", email)
	return nil
}

// SignUp registers the account and signs in with the same credentials. A
// conflict-shaped registration failure means the account already exists, so
// sign-in is attempted directly; if that then fails with an auth error the
// caller gets a message naming the real problem instead of the registration
// failure.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	_, err := m.api.Register(ctx, email, password)
	if err == nil {
		return m.SignIn(ctx, email, password)
	}
	if !service.IsConflict(err) && !service.ConflictShaped(err.Error()) {
		return err
	}

	slog.Debug("account exists, attempting sign-in", "user", email)
	loginErr := m.SignIn(ctx, email, password)
	if loginErr == nil {
		return nil
	}
	if service.IsAuth(loginErr) {
		return service.Errf(service.KindAuth, "account already exists and the password does not match")
	}
	return fmt.Errorf("account already exists, sign-in failed: %w", loginErr)
}

// SignOut clears the entire persistent store, not just the session keys.
// Deliberately total: stale leftover state has caused more bugs than wiping
// unrelated entries ever has. Store errors are logged; the in-memory session
// always ends unauthenticated.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		slog.Warn("clearing persisted session failed", "err", err)
	}
	m.mu.Lock()
	m.token = ""
	m.user = ""
	m.mu.Unlock()
	m.notify()
	slog.Debug("signed out")
}
