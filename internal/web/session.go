// Package web provides the HTTP server and web UI for emotify.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vedikaaneesh/emotify/internal/session"
)

const (
	sessionCookieName = "emotify_session"

	// DefaultSessionTTL is how long an idle visitor session is kept.
	DefaultSessionTTL = 24 * time.Hour
)

// Visitor is one browser's session and the controller that owns its state.
type Visitor struct {
	ID         string
	Controller *session.Controller
	CreatedAt  time.Time
	lastSeen   time.Time
}

// ControllerFactory builds the controller for a new visitor.
type ControllerFactory func(id string) *session.Controller

// SessionManager defines the interface for visitor session management.
type SessionManager interface {
	Get(ctx context.Context, id string) *Visitor
	GetFromRequest(r *http.Request) *Visitor
	GetOrCreate(w http.ResponseWriter, r *http.Request) (*Visitor, error)
	Delete(ctx context.Context, id string)
	Sweep() int
}

// SessionStore keeps visitor sessions in memory. Sessions expire after ttl
// without a request.
type SessionStore struct {
	mu            sync.Mutex
	visitors      map[string]*Visitor
	ttl           time.Duration
	newController ControllerFactory
	now           func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore(ttl time.Duration, newController ControllerFactory) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{
		visitors:      make(map[string]*Visitor),
		ttl:           ttl,
		newController: newController,
		now:           time.Now,
	}
}

// Get retrieves a live session by ID and refreshes its expiry.
func (s *SessionStore) Get(_ context.Context, id string) *Visitor {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil
	}

	now := s.now()
	if now.Sub(v.lastSeen) > s.ttl {
		delete(s.visitors, id)
		return nil
	}
	v.lastSeen = now
	return v
}

// GetFromRequest extracts the session from the request cookie.
func (s *SessionStore) GetFromRequest(r *http.Request) *Visitor {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	return s.Get(r.Context(), cookie.Value)
}

// GetOrCreate returns the request's session, starting a new one (and setting
// its cookie) when there is none.
func (s *SessionStore) GetOrCreate(w http.ResponseWriter, r *http.Request) (*Visitor, error) {
	if v := s.GetFromRequest(r); v != nil {
		return v, nil
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session ID: %w", err)
	}

	now := s.now()
	v := &Visitor{
		ID:         id,
		Controller: s.newController(id),
		CreatedAt:  now,
		lastSeen:   now,
	}

	s.mu.Lock()
	s.visitors[id] = v
	s.mu.Unlock()

	s.setCookie(w, v)
	return v, nil
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.visitors, id)
	s.mu.Unlock()
}

// Sweep drops expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

// ClearCookie removes the session cookie from the response.
func (s *SessionStore) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *SessionStore) setCookie(w http.ResponseWriter, v *Visitor) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    v.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

var _ SessionManager = (*SessionStore)(nil)
