// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"time"
)

// Purpose identifies why a code was sent.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Notifier delivers codes out of band. Callers treat delivery as best-effort.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// Message is the payload handed to a delivery backend.
type Message struct {
	Purpose   Purpose   `json:"purpose"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
