package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCode        = errors.New("invalid invitation code")
	ErrGuestNotFound      = errors.New("guest not found")
	ErrBotDetected        = errors.New("submission rejected")
	ErrStaleSubmission    = errors.New("submission timestamp outside the accepted window")
	ErrDuplicateRequest   = errors.New("an access request for this email was submitted recently")
	ErrRequestNotFound    = errors.New("access request not found")
	ErrNotPending         = errors.New("access request has already been decided")
	ErrPlusOneNotAllowed  = errors.New("this invitation does not include a plus-one")
	ErrCodeCollision      = errors.New("invitation code already in use")
	ErrUploadsDisabled    = errors.New("photo uploads are not enabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is one entry of a 400 response's details array.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}
