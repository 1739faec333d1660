package dto

import (
	"time"

	"github.com/mrops-br/qkart-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// LoginRequest carries user credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse describes the active session; the token is never echoed
type SessionResponse struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// NotificationResponse is one entry of the notification feed
type NotificationResponse struct {
	ID        string    `json:"id"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSessionResponse converts a domain Session
func ToSessionResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		Username: s.Username,
		Balance:  s.Balance,
	}
}

// ToNotificationResponseList converts the notification feed
func ToNotificationResponseList(notes []domain.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, len(notes))
	for i, n := range notes {
		responses[i] = NotificationResponse{
			ID:        n.ID,
			Severity:  string(n.Severity),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		}
	}
	return responses
}
