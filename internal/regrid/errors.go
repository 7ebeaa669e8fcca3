package regrid

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMethod is matched by MethodError.
	ErrUnknownMethod = errors.New("unknown regridding method")

	// ErrBackendUnavailable is returned when a registered backend cannot run.
	ErrBackendUnavailable = errors.New("regridding backend unavailable")

	// ErrTooFewSamples is returned when an axis has fewer than two coordinates.
	ErrTooFewSamples = errors.New("at least two coordinate samples per axis are required")
)

// MethodError reports an unrecognized method token.
type MethodError struct {
	Method string
	Known  []string
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("unknown regridding method '%s' (available: %s)", e.Method, strings.Join(e.Known, ", "))
}

func (e *MethodError) Unwrap() error {
	return ErrUnknownMethod
}
