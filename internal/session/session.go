// Package session stamps a single sender or receiver run with an
// identifier that ties its log lines and metrics together, the way a
// connection or request id would in a long-lived service.
package session

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is a single sender or receiver run.
type Session struct {
	ID   string
	Role string
	Log  *logrus.Entry
}

// New mints a new Session with a fresh UUID and a logger pre-populated
// with the session id and role fields.
func New(role string, logger *logrus.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		ID:   id,
		Role: role,
		Log: logger.WithFields(logrus.Fields{
			"session_id": id,
			"role":       role,
		}),
	}
}
