package records

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// DefaultFileName is the stream file used when Config.Name is empty.
const DefaultFileName = "records.jsonl"

// FileStore is a RecordStore that keeps the stream in a JSONL file. Every
// emit appends one line; Load reads the whole file back.
type FileStore struct {
	mu       sync.Mutex
	attached bool
	path     string
	file     *os.File
}

var _ types.RecordStore = (*FileStore)(nil)

// NewFileStore returns a detached FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Attach opens (creating if needed) the stream file in config.DataDir.
func (s *FileStore) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendJSONL {
		return fmt.Errorf("%w: file store cannot serve %q", types.ErrBackendUnknown, config.Backend)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	name := config.Name
	if name == "" {
		name = DefaultFileName
	}
	s.path = filepath.Join(dataDir, name)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}
	s.file = f
	s.attached = true
	return nil
}

// Path returns the stream file path.
func (s *FileStore) Path() string { return s.path }

// EmitObject implements types.Sink.
func (s *FileStore) EmitObject(rec types.ObjectRecord) error {
	return s.append(Entry{Object: &rec})
}

// EmitProperty implements types.Sink.
func (s *FileStore) EmitProperty(rec types.PropertyRecord) error {
	return s.append(Entry{Property: &rec})
}

func (s *FileStore) append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	return Encode(s.file, []Entry{e})
}

// Load implements types.RecordStore.
func (s *FileStore) Load() ([]types.ObjectRecord, []types.PropertyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, nil, types.ErrStoreDetached
	}
	entries, err := ReadFile(s.path)
	if err != nil {
		return nil, nil, err
	}
	objects, properties := Split(entries)
	return objects, properties, nil
}

// Reset implements types.RecordStore.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	return s.file.Truncate(0)
}

// Detach implements types.RecordStore. Idempotent.
func (s *FileStore) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	err := s.file.Sync()
	return errors.Join(err, s.file.Close())
}
