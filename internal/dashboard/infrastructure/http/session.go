package http

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrBadPassword = errors.New("invalid password")

// Sessions is the shared-secret gate in front of the dashboard. A
// correct password mints a bearer token; logout revokes it. This is a
// deliberate single-password gate for a two-person shop, not an
// account system.
type Sessions struct {
	secret []byte

	mu     sync.Mutex
	tokens map[string]struct{}
}

func NewSessions(password string) *Sessions {
	return &Sessions{
		secret: []byte(password),
		tokens: make(map[string]struct{}),
	}
}

func (s *Sessions) Login(password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(password), s.secret) != 1 {
		return "", ErrBadPassword
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
	return token, nil
}

func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}
