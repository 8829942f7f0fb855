package salonpress

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no item matches the requested id or slug.
	ErrNotFound = errors.New("salonpress: not found")
	// ErrImageProcessing wraps every failure of the image pipeline so callers
	// can tell the user the upload itself was the problem.
	ErrImageProcessing = errors.New("salonpress: image processing failed")
	// ErrStorage wraps failures to read or write a content file.
	ErrStorage = errors.New("salonpress: storage failure")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; !exists {
		v.FieldErrors[field] = message
	}
}

// errOrNil returns v as an error only when it holds field errors, so callers
// never get a typed-nil error interface back.
func (v *ValidationError) errOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
