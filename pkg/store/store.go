// Package store provides the public constructors for RecordStores while
// keeping the backend implementations internal.
package store

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/spsync/internal/records"
	"github.com/mesh-intelligence/spsync/internal/sqlite"
	"github.com/mesh-intelligence/spsync/pkg/types"
)

type options struct {
	log zerolog.Logger
}

// Option configures a store built by New or Open.
type Option func(*options)

// WithLogger sets the logger for backends that log.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New returns a detached RecordStore for the named backend.
//
// Example:
//
//	rs, err := store.New(types.BackendSQLite)
//	if err != nil {
//	    return err
//	}
//	err = rs.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
//	defer rs.Detach()
func New(backend string, opts ...Option) (types.RecordStore, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	switch backend {
	case types.BackendSQLite:
		return sqlite.NewStore(sqlite.WithLogger(o.log)), nil
	case types.BackendJSONL:
		return records.NewFileStore(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// Open builds the store config.Backend names and attaches it. The caller
// must Detach the returned store.
func Open(config types.Config, opts ...Option) (types.RecordStore, error) {
	rs, err := New(config.Backend, opts...)
	if err != nil {
		return nil, err
	}
	if err := rs.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s store: %w", config.Backend, err)
	}
	return rs, nil
}
