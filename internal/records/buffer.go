// Package records holds record stream containers and file formats: an
// in-memory Buffer sink, the JSONL stream encoding, and a JSONL-file
// RecordStore.
package records

import (
	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Entry is one record of a stream. Exactly one of Object and Property is
// set.
type Entry struct {
	Object   *types.ObjectRecord   `json:"object,omitempty"`
	Property *types.PropertyRecord `json:"property,omitempty"`
}

// Buffer is a Sink that keeps every emitted record in order.
type Buffer struct {
	entries []Entry
}

var _ types.Sink = (*Buffer)(nil)

// EmitObject implements types.Sink.
func (b *Buffer) EmitObject(rec types.ObjectRecord) error {
	b.entries = append(b.entries, Entry{Object: &rec})
	return nil
}

// EmitProperty implements types.Sink.
func (b *Buffer) EmitProperty(rec types.PropertyRecord) error {
	b.entries = append(b.entries, Entry{Property: &rec})
	return nil
}

// Entries returns the records in emission order.
func (b *Buffer) Entries() []Entry { return b.entries }

// Len returns the number of records.
func (b *Buffer) Len() int { return len(b.entries) }

// Reset drops every record.
func (b *Buffer) Reset() { b.entries = nil }

// Split returns the object and property records, each in emission order.
func (b *Buffer) Split() ([]types.ObjectRecord, []types.PropertyRecord) {
	return Split(b.entries)
}

// Split separates entries into object and property records, keeping the
// order within each kind.
func Split(entries []Entry) ([]types.ObjectRecord, []types.PropertyRecord) {
	var (
		objects    []types.ObjectRecord
		properties []types.PropertyRecord
	)
	for _, e := range entries {
		switch {
		case e.Object != nil:
			objects = append(objects, *e.Object)
		case e.Property != nil:
			properties = append(properties, *e.Property)
		}
	}
	return objects, properties
}

// Emit replays entries into sink in order.
func Emit(sink types.Sink, entries []Entry) error {
	for _, e := range entries {
		var err error
		switch {
		case e.Object != nil:
			err = sink.EmitObject(*e.Object)
		case e.Property != nil:
			err = sink.EmitProperty(*e.Property)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
