package service

import (
	"errors"
	"net/http"
)

// Kinds. Callers match these with errors.Is and map them to status codes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBanned             = errors.New("user is banned")
	ErrUnverified         = errors.New("email not verified")
	ErrForbidden          = errors.New("forbidden")
	ErrVerificationFailed = errors.New("verification failed")
	ErrNotFound           = errors.New("not found")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
)

// Error pairs a kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func fail(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrInvalidEmail       = &Error{Kind: ErrValidation, Message: "Email is invalid."}
	ErrUsernameTaken      = &Error{Kind: ErrConflict, Message: "Username already exists"}
	ErrEmailTaken         = &Error{Kind: ErrConflict, Message: "Email already exists"}
	ErrCredentialMismatch = &Error{Kind: ErrInvalidCredentials, Message: "Username and password do not match."}
	ErrUserBanned         = &Error{Kind: ErrBanned, Message: "You are banned."}
	ErrUserUnverified     = &Error{Kind: ErrUnverified, Message: "You must verify your email."}
	ErrNoPermission       = &Error{Kind: ErrForbidden, Message: "You don't have permission to access this resource."}
	ErrConfirmFailed      = &Error{Kind: ErrVerificationFailed, Message: "The confirmation link is invalid or has expired."}
	ErrRevoked            = &Error{Kind: ErrTokenRevoked, Message: "The token has been revoked."}
	ErrBadToken           = &Error{Kind: ErrTokenInvalid, Message: "The token is invalid or has expired."}
	ErrSessionEnded       = &Error{Kind: ErrTokenInvalid, Message: "The session is no longer active."}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Message: "No user found with the provided username."}
	ErrProductNotFound    = &Error{Kind: ErrNotFound, Message: "No product found with the provided ID."}
)

// Message returns the client-facing text of err, or "" when err carries none.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// HTTPStatus maps an error kind to the status code a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrBanned), errors.Is(err, ErrUnverified), errors.Is(err, ErrForbidden), errors.Is(err, ErrVerificationFailed):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
