// Package validation checks a user request against what a dataset provides.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.ngs.io/harmonize/internal/domain"
)

var (
	// ErrInvalidVariable is returned when a requested variable is not in the dataset.
	ErrInvalidVariable = errors.New("invalid variable")

	// ErrInvalidTimeBounds is returned when the dataset does not cover the requested period.
	ErrInvalidTimeBounds = errors.New("invalid time bounds")
)

// CompareVariables checks that every requested variable is provided by the dataset.
func CompareVariables(ds domain.DatasetInfo, variables []string) error {
	var missing []string
	for _, v := range variables {
		if !ds.HasVariable(v) {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not provided by the '%s' dataset (available: %s)",
			ErrInvalidVariable, strings.Join(missing, ", "), ds.Name, strings.Join(ds.VariableNames, ", "))
	}
	return nil
}

// CompareTimeBounds checks that the dataset covers the requested period on both ends.
func CompareTimeBounds(ds domain.DatasetInfo, request domain.TimeBounds) error {
	var b strings.Builder
	if ds.Time.Start.After(request.Start) {
		fmt.Fprintf(&b, "\nThe '%s' data could not cover the start of requested range:"+
			"\n    data start: %s\n    requested start: %s",
			ds.Name, ds.Time.Start.Format(time.RFC3339), request.Start.Format(time.RFC3339))
	}
	if ds.Time.End.Before(request.End) {
		fmt.Fprintf(&b, "\nThe '%s' data could not cover the end of requested range:"+
			"\n    data end: %s\n    requested end: %s",
			ds.Name, ds.Time.End.Format(time.RFC3339), request.End.Format(time.RFC3339))
	}
	if b.Len() > 0 {
		return fmt.Errorf("%w:%s", ErrInvalidTimeBounds, b.String())
	}
	return nil
}

// ValidateRequest runs every check and returns the first failure.
// The spatial extent is not checked: regridding masks uncovered cells instead.
func ValidateRequest(ds domain.DatasetInfo, tb domain.TimeBounds, variables []string) error {
	if err := CompareVariables(ds, variables); err != nil {
		return err
	}
	return CompareTimeBounds(ds, tb)
}
