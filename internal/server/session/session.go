// Package session keeps signed-in stakeholders and the snapshot each one was
// last shown. A session is the only carrier of identity between requests.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwp-tools/jwpedit/pkg/errors"
	"github.com/jwp-tools/jwpedit/pkg/masterdata"
)

// DefaultTTL is how long an idle session lives.
const DefaultTTL = 8 * time.Hour

// Session is one signed-in stakeholder.
type Session struct {
	Token     string              `json:"token"`
	Identity  masterdata.Identity `json:"identity"`
	CreatedAt time.Time           `json:"created_at"`

	mu       sync.Mutex
	snapshot *masterdata.Table
}

// SetSnapshot records the rows the stakeholder was shown.
func (s *Session) SetSnapshot(t masterdata.Table) {
	c := t.Clone()
	s.mu.Lock()
	s.snapshot = &c
	s.mu.Unlock()
}

// Snapshot returns a copy of the rows last shown, if any.
func (s *Session) Snapshot() (masterdata.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return masterdata.Table{}, false
	}
	return s.snapshot.Clone(), true
}

// Store holds sessions in memory with sliding expiry.
type Store struct {
	items *gocache.Cache
	ttl   time.Duration
}

// NewStore creates a session store.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{items: gocache.New(ttl, ttl/4), ttl: ttl}
}

// Create starts a session for id.
func (s *Store) Create(id masterdata.Identity) (*Session, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{Token: token, Identity: id, CreatedAt: time.Now()}
	s.items.Set(token, sess, gocache.DefaultExpiration)
	return sess, nil
}

// Get returns the session for token and extends its lifetime.
func (s *Store) Get(token string) (*Session, error) {
	v, ok := s.items.Get(token)
	if !ok || token == "" {
		return nil, &errors.AuthenticationError{Method: "session", Message: "unknown or expired session"}
	}
	sess := v.(*Session)
	s.items.Set(token, sess, gocache.DefaultExpiration)
	return sess, nil
}

// Delete ends a session.
func (s *Store) Delete(token string) {
	s.items.Delete(token)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.items.ItemCount()
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.NewConfigError("session", "generate token", err)
	}
	return hex.EncodeToString(b), nil
}

type contextKey struct{}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session on the context.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
