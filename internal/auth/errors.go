package auth

import (
	"errors"

	"review-analyzer/internal/users"
)

// User-facing messages.
const (
	MsgFillAllFields      = "Please fill in all fields."
	MsgPasswordsDiffer    = "Passwords do not match."
	MsgPasswordTooShort   = "Password must be at least 6 characters long."
	MsgMissingCredentials = "Please enter both email and password."
	MsgSignUpSuccess      = "Account created! Please check your email and click the confirmation link to activate your account."
	MsgConfirmEmailFirst  = "Please check your email and click the confirmation link before signing in."
	msgUnexpected         = "An unexpected error occurred. Please try again."
	minPasswordLength     = 6
)

var (
	ErrUserExists         = users.ErrDuplicate
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrInvalidLink        = errors.New("confirmation link is invalid or has expired")
	ErrRevoked            = errors.New("session has been revoked")
	ErrNotConfigured      = errors.New("auth not configured")
)

// ValidationError carries a form validation message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UserMessage maps an auth error onto the text shown on the sign-in page.
func UserMessage(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, ErrEmailNotConfirmed):
		return MsgConfirmEmailFirst
	case errors.Is(err, ErrUserExists):
		return "User already registered"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidLink):
		return err.Error()
	default:
		return msgUnexpected
	}
}
