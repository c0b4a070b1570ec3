package types

import (
	"errors"
	"fmt"
)

// Commit and query errors.
var (
	ErrMissingRequiredProperty = errors.New("missing required property")
	ErrUnknownProperty         = errors.New("unknown property")
	ErrConversion              = errors.New("value conversion failed")
	ErrNoHelperForType         = errors.New("no helper for type")
	ErrTypeMismatch            = errors.New("object type does not match helper")
	ErrDanglingProperty        = errors.New("property owner not in stream")
	ErrDuplicateObject         = errors.New("duplicate object id in stream")
	ErrCycle                   = errors.New("object is its own ancestor")
	ErrInvalidChild            = errors.New("invalid child type")
	ErrInvalidValueType        = errors.New("invalid value type")
	ErrInvalidID               = errors.New("invalid object id")
)

// Record store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("record store is detached")
	ErrAlreadyAttached = errors.New("record store is already attached")
)

// PropertyError reports a failure tied to one property of one object.
type PropertyError struct {
	TypeName string
	ID       string
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("%s %s: property %q: %v", e.TypeName, e.ID, e.Property, e.Err)
}

func (e *PropertyError) Unwrap() error { return e.Err }

// SinkError wraps an error returned by a Sink. The core does not interpret
// the wrapped error.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return "sink: " + e.Err.Error() }

func (e *SinkError) Unwrap() error { return e.Err }
