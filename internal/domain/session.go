package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Session is the authenticated user context
type Session struct {
	Token    string
	Username string
	Balance  decimal.Decimal
}

// Authenticated reports whether the session carries a token
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// SessionEvent is published when the session changes
type SessionEvent int

const (
	EventLoggedIn SessionEvent = iota + 1
	EventLoggedOut
)

func (e SessionEvent) String() string {
	switch e {
	case EventLoggedIn:
		return "logged_in"
	case EventLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// Severity of a user-facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notification is a message reported to the user
type Notification struct {
	ID        string
	Severity  Severity
	Message   string
	CreatedAt time.Time
}
