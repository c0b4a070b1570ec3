package types

// Object is a node of the domain object tree that the persistence core can
// construct, attach, query and replay.
type Object interface {
	// UUID returns the object's unique identifier.
	UUID() string

	// SetUUID replaces the object's identifier. Helpers call it once, right
	// after construction, with the id carried by the ObjectRecord.
	SetUUID(id string)

	// TypeName returns the registry name of the object's concrete type.
	TypeName() string

	// Parent returns the containing object, or nil for a root.
	Parent() Object

	// Children returns the object's children in order. The returned slice
	// must not be modified.
	Children() []Object

	// AddChild attaches child at index among the existing children of the
	// same type and sets the child's parent. An index past the end appends.
	// Returns an error if the object does not accept children of that type.
	AddChild(child Object, index int) error
}

// Sink receives emitted records in order. Implementations own transport,
// batching and durability; the persistence core only calls them
// synchronously and propagates their errors.
type Sink interface {
	EmitObject(rec ObjectRecord) error
	EmitProperty(rec PropertyRecord) error
}

// SinkFunc adapts a pair of functions to a Sink.
type SinkFunc struct {
	Object   func(ObjectRecord) error
	Property func(PropertyRecord) error
}

// EmitObject calls s.Object if set.
func (s SinkFunc) EmitObject(rec ObjectRecord) error {
	if s.Object == nil {
		return nil
	}
	return s.Object(rec)
}

// EmitProperty calls s.Property if set.
func (s SinkFunc) EmitProperty(rec PropertyRecord) error {
	if s.Property == nil {
		return nil
	}
	return s.Property(rec)
}

// RecordStore is a durable Sink that can hand back everything it received
// as a record stream.
type RecordStore interface {
	Sink

	// Attach opens the store described by config. Returns
	// ErrAlreadyAttached if called twice without Detach.
	Attach(config Config) error

	// Load returns all stored records in emission order.
	Load() ([]ObjectRecord, []PropertyRecord, error)

	// Reset discards all stored records.
	Reset() error

	// Detach releases resources. Idempotent.
	Detach() error
}
