package service

import (
	"fmt"
	"net/http"
)

// Kind is the stable identifier of a service failure.
type Kind string

const (
	KindOrgNotFound          Kind = "org_not_found"
	KindEmailConflict        Kind = "email_conflict"
	KindUserNotFound         Kind = "user_not_found"
	KindAlreadyVerified      Kind = "already_verified"
	KindCodeExpired          Kind = "code_expired"
	KindInvalidCode          Kind = "invalid_code"
	KindInvalidCredentials   Kind = "invalid_credentials"
	KindEmailNotVerified     Kind = "email_not_verified"
	KindInvalidProviderToken Kind = "invalid_provider_token"
	KindUnsupportedProvider  Kind = "unsupported_provider"
	KindPasswordMismatch     Kind = "password_mismatch"
	KindInvalidToken         Kind = "invalid_token"
	KindTokenExpired         Kind = "token_expired"
	KindInvalidRequest       Kind = "invalid_request"
	KindConflict             Kind = "conflict"
)

// Error is a classified failure with a user-facing message and HTTP status.
type Error struct {
	Kind    Kind
	Message string
	Status  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any *Error of the same kind, so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message string, status int) *Error {
	return &Error{Kind: kind, Message: message, Status: status}
}

// withMessage returns a copy of e carrying a different message.
func (e *Error) withMessage(message string) *Error {
	return newError(e.Kind, message, e.Status)
}

var (
	ErrOrgNotFound          = newError(KindOrgNotFound, "Organization not found", http.StatusNotFound)
	ErrEmailConflict        = newError(KindEmailConflict, "Email already exists", http.StatusConflict)
	ErrUserNotFound         = newError(KindUserNotFound, "User not found", http.StatusNotFound)
	ErrAlreadyVerified      = newError(KindAlreadyVerified, "Email already verified", http.StatusBadRequest)
	ErrCodeExpired          = newError(KindCodeExpired, "Verification code expired", http.StatusBadRequest)
	ErrInvalidCode          = newError(KindInvalidCode, "Invalid verification code", http.StatusBadRequest)
	ErrInvalidCredentials   = newError(KindInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrEmailNotVerified     = newError(KindEmailNotVerified, "Please verify your email first", http.StatusForbidden)
	ErrInvalidProviderToken = newError(KindInvalidProviderToken, "Invalid social login token", http.StatusUnauthorized)
	ErrUnsupportedProvider  = newError(KindUnsupportedProvider, "Password reset is not available for social login accounts", http.StatusBadRequest)
	ErrPasswordMismatch     = newError(KindPasswordMismatch, "Passwords do not match", http.StatusBadRequest)
	ErrInvalidToken         = newError(KindInvalidToken, "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired         = newError(KindTokenExpired, "Token expired. Please login again.", http.StatusUnauthorized)
	ErrInvalidRequest       = newError(KindInvalidRequest, "Invalid request", http.StatusBadRequest)
	ErrConflict             = newError(KindConflict, "The account was modified concurrently, please retry", http.StatusConflict)
)

var (
	errResetCodeExpired = ErrCodeExpired.withMessage("Password reset code expired")
	errInvalidResetCode = ErrInvalidCode.withMessage("Invalid password reset code")
)
