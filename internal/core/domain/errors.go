package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTemporary    = errors.New("temporary failure")

	// ErrProviderDown is reported when a health gate short-circuits a call.
	ErrProviderDown = errors.New("provider unavailable")
	ErrSafeMode     = errors.New("provider disabled by safe mode")

	// ErrCanceled marks work aborted by the caller. It must never be reported
	// as a provider failure.
	ErrCanceled = errors.New("operation canceled")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
