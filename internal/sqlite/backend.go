// Package sqlite implements a RecordStore that keeps the record stream in a
// SQLite database, ordered by insertion.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// DefaultFileName is the database file used when Config.Name is empty.
const DefaultFileName = "records.db"

// Store is a RecordStore backed by SQLite. With a batch size above one,
// emitted records are queued and written in a single transaction once the
// batch is full, and before Load and Detach.
type Store struct {
	mu        sync.Mutex
	attached  bool
	db        *sql.DB
	path      string
	batchSize int
	pending   []row
	log       zerolog.Logger
}

// row is one record in column form.
type row struct {
	kind      string
	objectID  string
	typeName  sql.NullString
	parentID  sql.NullString
	index     sql.NullInt64
	name      sql.NullString
	value     sql.NullString
	valueType sql.NullString
}

var _ types.RecordStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the Store's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore returns a detached Store. Call Attach before use.
func NewStore(opts ...Option) *Store {
	s := &Store{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach opens (creating if needed) the database in config.DataDir and
// ensures the schema exists. Records already stored are kept.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: sqlite store cannot serve %q", types.ErrBackendUnknown, config.Backend)
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
	path := filepath.Join(dataDir, name)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	// A single connection applies writes in emission order.
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	s.db = db
	s.path = path
	s.batchSize = config.BatchSize
	s.pending = nil
	s.attached = true
	s.log.Debug().Str("path", path).Int("batch_size", s.batchSize).Msg("sqlite store attached")
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// EmitObject implements types.Sink.
func (s *Store) EmitObject(rec types.ObjectRecord) error {
	return s.write(row{
		kind:     kindObject,
		objectID: rec.ID,
		typeName: sql.NullString{String: rec.TypeName, Valid: true},
		parentID: sql.NullString{String: rec.ParentID, Valid: rec.ParentID != ""},
		index:    sql.NullInt64{Int64: int64(rec.Index), Valid: true},
	})
}

// EmitProperty implements types.Sink. The value is stored as JSON text and
// decoded again according to its value type on Load.
func (s *Store) EmitProperty(rec types.PropertyRecord) error {
	if !rec.ValueType.IsValid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidValueType, rec.ValueType)
	}
	value, err := json.Marshal(rec.Value)
	if err != nil {
		return fmt.Errorf("encoding %s.%s: %w", rec.OwnerID, rec.Name, err)
	}
	return s.write(row{
		kind:      kindProperty,
		objectID:  rec.OwnerID,
		name:      sql.NullString{String: rec.Name, Valid: true},
		value:     sql.NullString{String: string(value), Valid: true},
		valueType: sql.NullString{String: string(rec.ValueType), Valid: true},
	})
}

func (s *Store) write(r row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if s.batchSize <= 1 {
		return s.insert(s.db, r)
	}
	s.pending = append(s.pending, r)
	if len(s.pending) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(db execer, r row) error {
	_, err := db.Exec(insertRecord,
		r.kind, r.objectID, r.typeName, r.parentID, r.index, r.name, r.value, r.valueType)
	if err != nil {
		return fmt.Errorf("insert %s record for %s: %w", r.kind, r.objectID, err)
	}
	return nil
}

// Flush writes any queued records.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	return s.flushLocked()
}

// flushLocked writes the queued records in one transaction. On failure the
// queue is kept so a later flush can retry. The caller must hold s.mu.
func (s *Store) flushLocked() error {
	if len(s.pending) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	for _, r := range s.pending {
		if err := s.insert(tx, r); err != nil {
			return errors.Join(err, tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	s.log.Debug().Int("records", len(s.pending)).Msg("flushed record batch")
	s.pending = nil
	return nil
}

// Load implements types.RecordStore. Queued records are written first.
func (s *Store) Load() ([]types.ObjectRecord, []types.PropertyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, nil, types.ErrStoreDetached
	}
	if err := s.flushLocked(); err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(selectRecords)
	if err != nil {
		return nil, nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var (
		objects    []types.ObjectRecord
		properties []types.PropertyRecord
	)
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.kind, &r.objectID, &r.typeName, &r.parentID, &r.index, &r.name, &r.value, &r.valueType); err != nil {
			return nil, nil, fmt.Errorf("scan record: %w", err)
		}
		switch r.kind {
		case kindObject:
			objects = append(objects, types.ObjectRecord{
				ID:       r.objectID,
				TypeName: r.typeName.String,
				ParentID: r.parentID.String,
				Index:    int(r.index.Int64),
			})
		case kindProperty:
			vt := types.ValueType(r.valueType.String)
			v, err := types.DecodeValue(vt, json.RawMessage(r.value.String))
			if err != nil {
				return nil, nil, fmt.Errorf("decode %s.%s: %w", r.objectID, r.name.String, err)
			}
			properties = append(properties, types.PropertyRecord{
				OwnerID:   r.objectID,
				Name:      r.name.String,
				Value:     v,
				ValueType: vt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate records: %w", err)
	}
	return objects, properties, nil
}

// Len returns the number of stored records, not counting queued ones.
func (s *Store) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return 0, types.ErrStoreDetached
	}
	var n int
	if err := s.db.QueryRow(countRecords).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Reset implements types.RecordStore. Queued records are dropped too.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	s.pending = nil
	if _, err := s.db.Exec(deleteRecords); err != nil {
		return fmt.Errorf("reset records: %w", err)
	}
	return nil
}

// Detach implements types.RecordStore. Queued records are written before
// the database closes. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return fmt.Errorf("flush pending records: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	return nil
}
