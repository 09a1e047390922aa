package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransientNetwork  = errors.New("transient network error")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEngineRejected    = errors.New("engine rejected request")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrUnknownSession    = errors.New("unknown session key")
	ErrSessionStopped    = errors.New("session stopped")
	ErrPresetNotFound    = errors.New("preset not found")
)

// ValidationError reports the first field of a raw config that failed
// validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
