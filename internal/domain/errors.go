package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidPrompt   = errors.New("invalid prompt")
	ErrMissingImage    = errors.New("room has no image")
	ErrProviderFailure = errors.New("provider failure")
)
