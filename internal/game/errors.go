package game

import (
	"errors"
	"fmt"
)

var (
	// ErrGameActive is returned when a game is started while another runs.
	ErrGameActive = errors.New("a game is already active")
	// ErrNotRoundEnded is returned when the next round is requested early.
	ErrNotRoundEnded = errors.New("round has not ended")
	// ErrUnknownMode is returned for an unregistered mode key.
	ErrUnknownMode = errors.New("unknown game mode")
	// ErrUnknownRole is returned for an unregistered role key.
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownEffect is returned for an unregistered status effect key.
	ErrUnknownEffect = errors.New("unknown status effect")
	// ErrUnknownPlayer is returned by admin calls that name a missing player.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrUnsupported is returned when the active mode lacks a capability.
	ErrUnsupported = errors.New("not supported by the active mode")
)

// ValidationError describes a rejected request in human-readable form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func validationErrorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
