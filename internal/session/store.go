package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/enums"
	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
)

// Authenticator exchanges operator credentials for a token pair.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)
}

// Store holds the operator session strictly in process memory. The
// station never inspects token signatures; it only reads the expiry
// claim to avoid sending calls it knows will bounce.
type Store struct {
	mu      sync.Mutex
	auth    Authenticator
	user    *backend.User
	access  string
	refresh string
	clock   func() time.Time
}

// Option configures optional store behavior.
type Option func(*Store)

// WithClock overrides the expiry time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore builds an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Bind attaches the authenticator. The store is created before the
// backend client because the client needs it as a token source.
func (s *Store) Bind(auth Authenticator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = auth
}

// Login authenticates the operator and installs the session.
func (s *Store) Login(ctx context.Context, username, password string) (*backend.User, error) {
	s.mu.Lock()
	auth := s.auth
	s.mu.Unlock()
	if auth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "authenticator not bound")
	}

	result, err := auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	user := result.User
	s.user = &user
	s.access = result.AccessToken
	s.refresh = result.RefreshToken
	s.mu.Unlock()

	return &user, nil
}

// Logout wipes the session.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.access = ""
	s.refresh = ""
}

// Current returns the logged-in operator, if any.
func (s *Store) Current() (backend.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return backend.User{}, false
	}
	return *s.user, true
}

// HasRole reports whether the current operator holds the role.
func (s *Store) HasRole(role enums.Role) bool {
	user, ok := s.Current()
	return ok && user.HasRole(role)
}

// AccessToken implements backend.TokenSource.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// ExpiresAt reads the access token's exp claim without verifying the
// signature; the server remains the authority on validity.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	token := s.access
	s.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the access token is known to be past its
// expiry. Tokens without a readable exp claim are assumed live.
func (s *Store) Expired() bool {
	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return s.clock().After(exp)
}
