package types

import "errors"

// Config selects and locates a RecordStore for Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Name is the store's file name inside DataDir. Backends pick a
	// default when empty.
	Name string `json:"name" yaml:"name"`

	// BatchSize groups emitted records into one write once this many are
	// queued. Zero or one writes every record immediately.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendJSONL  = "jsonl"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrBatchSizeInvalid = errors.New("batch size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendJSONL:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	return nil
}
