package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrValidation      = errors.New("validation failed")
	ErrEntryClosed     = errors.New("time entry already closed")
)
