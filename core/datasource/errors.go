package datasource

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a key or value lookup misses. It is the
// 404-equivalent condition for data-source operations.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MissingOperationError reports a capability record missing a
// mandatory operation at construction time.
type MissingOperationError struct {
	Op string
}

func (e *MissingOperationError) Error() string {
	return fmt.Sprintf("data source capability record is missing mandatory operation %q", e.Op)
}

// UnsupportedError reports an operation the underlying capability
// record does not supply and no default can synthesize.
type UnsupportedError struct {
	Op string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operation %q is not supported by this data source", e.Op)
}

// InvalidValueError reports a value rejected by a validator before any
// mutation took place.
type InvalidValueError struct {
	Cause error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value: %v", e.Cause)
}

func (e *InvalidValueError) Unwrap() error { return e.Cause }
