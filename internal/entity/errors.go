package entity

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCredentialInvalid = errors.New("credential invalid, reconnect required")
	ErrInvalidTransition = errors.New("invalid lead status transition")
)
