package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration signals bad tokenization or normalization settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrMalformedBundle signals a structural or schema violation in a serialized bundle.
	ErrMalformedBundle = errors.New("malformed bundle")
	// ErrUnsupportedConfiguration signals a recognized option value that is not implemented.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	// ErrDimensionMismatch signals a weight vector whose length differs from the vocabulary size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyModel signals a bundle without classes.
	ErrEmptyModel = errors.New("empty model")

	// ErrBundleNotFound signals that no bundle exists at the given reference.
	ErrBundleNotFound = errors.New("bundle not found")
)

// BundleError wraps one of the bundle sentinels with the offending field path.
type BundleError struct {
	Field string
	Err   error
}

func (e *BundleError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *BundleError) Unwrap() error { return e.Err }

// NewBundleError creates a field-scoped error around sentinel, formatting
// the detail message with args.
func NewBundleError(sentinel error, field, format string, args ...any) error {
	return &BundleError{
		Field: field,
		Err:   fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...),
	}
}
