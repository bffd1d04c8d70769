package service

import "errors"

// ErrBackendUnavailable means the model backend failed its liveness probe;
// no model call was attempted.
var ErrBackendUnavailable = errors.New("model backend unavailable")

// ErrNoText means the uploaded PDF could not be turned into usable text.
var ErrNoText = errors.New("no extractable text")

// ValidationError is a rejected input with a message safe to show the user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}
