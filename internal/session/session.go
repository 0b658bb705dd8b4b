// Package session keeps the operator's authentication state. A session is
// either anonymous or authenticated with the opaque token handed out by the
// remote user service. Besides the token a session carries the pending
// notifications and the user management page state of that operator.
package session

import (
	"errors"
	"sync"

	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/views/usersview"
)

var ErrEmptyToken = errors.New("session token must not be empty")

// Session is one operator's session. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	id      string
	token   string
	flashes []notify.Message
	users   *usersview.State
}

// New returns an anonymous session.
func New(id string) *Session {
	return &Session{id: id}
}

func restore(id, token string) *Session {
	return &Session{id: id, token: token}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token != ""
}

// Login moves the session to the authenticated state.
func (s *Session) Login(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token

	return nil
}

// Logout moves the session back to the anonymous state and forgets the page state.
// Pending notifications survive so the login page can show them.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.users = nil
}

// AddFlash queues a notification for the next rendered page.
func (s *Session) AddFlash(msg notify.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flashes = append(s.flashes, msg)
}

// PopFlashes returns and clears the queued notifications.
func (s *Session) PopFlashes() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.flashes
	s.flashes = nil

	return result
}

// Users returns the user management page state, creating it on first use.
func (s *Session) Users() *usersview.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users == nil {
		s.users = usersview.New()
	}

	return s.users
}
