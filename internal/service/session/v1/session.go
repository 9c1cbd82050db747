// Package session provides the process-wide bearer credential with write-through persistence
// and synchronous change broadcasts.
package session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danilovkiri/dk_go_qr_forge/internal/events"
	"github.com/danilovkiri/dk_go_qr_forge/internal/scheduler"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/session"
	"github.com/danilovkiri/dk_go_qr_forge/internal/storage"
	storageErrors "github.com/danilovkiri/dk_go_qr_forge/internal/storage/errors"
)

// StorageKey is the durable storage key holding the token across runs.
const StorageKey = "qr_forge_token"

// Check interface implementation explicitly
var (
	_ session.TokenStore = (*Session)(nil)
)

// Session defines object structure and its attributes.
type Session struct {
	mu      sync.RWMutex
	token   string
	storage storage.KeyValue
	bus     *events.Bus
	sched   scheduler.Scheduler
}

// NewSession initializes a Session and loads the persisted token, if any.
func NewSession(ctx context.Context, st storage.KeyValue, bus *events.Bus, sched scheduler.Scheduler) (*Session, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil storage was passed to session initializer"}
	}
	if bus == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil event bus was passed to session initializer"}
	}
	if sched == nil {
		sched = scheduler.Real{}
	}
	s := &Session{storage: st, bus: bus, sched: sched}
	token, err := st.Get(ctx, StorageKey)
	var notFound *storageErrors.NotFoundError
	switch {
	case errors.As(err, &notFound):
	case err != nil:
		log.Println("Loading session:", err)
	default:
		s.token = strings.TrimSpace(token)
	}
	return s, nil
}

// Token returns the current credential.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// IsAuthed reports whether a credential is present.
func (s *Session) IsAuthed() bool {
	_, ok := s.Token()
	return ok
}

// Expired reports whether the credential is a JWT whose exp claim has passed.
// Tokens that cannot be read as JWTs never expire client-side.
func (s *Session) Expired() bool {
	token, ok := s.Token()
	if !ok {
		return false
	}
	return TokenExpired(token, s.sched)
}

// TokenExpired reads the exp claim of token without verifying its signature.
func TokenExpired(token string, sched scheduler.Scheduler) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !sched.Now().Before(exp.Time)
}

// Set persists token, updates the in-memory credential and broadcasts the change.
// A blank token clears the session.
func (s *Session) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear(ctx)
	}
	err := s.storage.Set(ctx, StorageKey, token)
	if err != nil {
		log.Println("Persisting session:", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.bus.Publish(events.SessionChanged{Authenticated: true})
	return err
}

// Clear removes the persisted credential, drops it from memory and broadcasts the change.
func (s *Session) Clear(ctx context.Context) error {
	err := s.storage.Remove(ctx, StorageKey)
	if err != nil {
		log.Println("Removing session:", err)
	}
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.bus.Publish(events.SessionChanged{Authenticated: false})
	return err
}

// ClearIfCurrent clears the session only while token is still the current credential.
// It reports whether the session was cleared.
func (s *Session) ClearIfCurrent(ctx context.Context, token string) (bool, error) {
	s.mu.RLock()
	current := s.token
	s.mu.RUnlock()
	if current == "" || current != token {
		return false, nil
	}
	return true, s.Clear(ctx)
}
