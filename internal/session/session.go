// Package session holds the logged-in help-desk user for one client instance.
package session

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidUserID is returned by Login when the input is not a positive integer.
var ErrInvalidUserID = errors.New("user id must be a positive integer")

// Session is the login state. The zero value is logged out.
type Session struct {
	userID int64
	id     uuid.UUID
}

// New returns a logged-out session.
func New() *Session {
	return &Session{}
}

// Login parses raw as a base-10 positive integer and makes it the current user.
// On failure the session is left untouched.
func (s *Session) Login(raw string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return ErrInvalidUserID
	}
	s.userID = id
	s.id = uuid.New()
	return nil
}

// Logout forgets the current user.
func (s *Session) Logout() {
	s.userID = 0
	s.id = uuid.Nil
}

// UserID returns the current user and whether one is logged in.
func (s *Session) UserID() (int64, bool) {
	return s.userID, s.userID > 0
}

// LoggedIn reports whether a user is set.
func (s *Session) LoggedIn() bool {
	return s.userID > 0
}

// ID identifies the current login; it is uuid.Nil while logged out.
func (s *Session) ID() uuid.UUID {
	return s.id
}
