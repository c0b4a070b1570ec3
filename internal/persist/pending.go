package persist

import (
	"fmt"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// PropertyStore stages property records that have not been applied yet,
// keyed by owner id and kept in arrival order. Records leave the store when
// construction or mutation consumes them.
//
// A PropertyStore belongs to one commit pass and is not safe for
// concurrent use.
type PropertyStore struct {
	byOwner map[string][]types.PropertyRecord
	owners  []string // owner ids in first-arrival order
	seen    map[string]bool
}

// NewPropertyStore stages records in the order given.
func NewPropertyStore(records ...types.PropertyRecord) *PropertyStore {
	s := &PropertyStore{
		byOwner: make(map[string][]types.PropertyRecord),
		seen:    make(map[string]bool),
	}
	for _, rec := range records {
		s.Add(rec)
	}
	return s
}

// Add stages rec behind any records already staged for its owner.
func (s *PropertyStore) Add(rec types.PropertyRecord) {
	s.track(rec.OwnerID)
	s.byOwner[rec.OwnerID] = append(s.byOwner[rec.OwnerID], rec)
}

// Get returns a copy of the records staged for owner, oldest first.
func (s *PropertyStore) Get(owner string) []types.PropertyRecord {
	recs := s.byOwner[owner]
	if len(recs) == 0 {
		return nil
	}
	out := make([]types.PropertyRecord, len(recs))
	copy(out, recs)
	return out
}

// Take removes and returns the oldest record staged for owner under name.
func (s *PropertyStore) Take(owner, name string) (types.PropertyRecord, bool) {
	recs := s.byOwner[owner]
	for i, rec := range recs {
		if rec.Name != name {
			continue
		}
		s.set(owner, append(recs[:i:i], recs[i+1:]...))
		return rec, true
	}
	return types.PropertyRecord{}, false
}

// Peek returns the oldest record staged for owner without removing it.
func (s *PropertyStore) Peek(owner string) (types.PropertyRecord, bool) {
	recs := s.byOwner[owner]
	if len(recs) == 0 {
		return types.PropertyRecord{}, false
	}
	return recs[0], true
}

// Pop removes and returns the oldest record staged for owner.
func (s *PropertyStore) Pop(owner string) (types.PropertyRecord, bool) {
	recs := s.byOwner[owner]
	if len(recs) == 0 {
		return types.PropertyRecord{}, false
	}
	s.set(owner, recs[1:])
	return recs[0], true
}

// Owners returns the ids that still have staged records, in the order
// their first record arrived.
func (s *PropertyStore) Owners() []string {
	out := make([]string, 0, len(s.owners))
	for _, id := range s.owners {
		if len(s.byOwner[id]) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of staged records.
func (s *PropertyStore) Len() int {
	n := 0
	for _, recs := range s.byOwner {
		n += len(recs)
	}
	return n
}

// restore replaces everything staged for owner with recs, undoing the
// takes of a failed construction.
func (s *PropertyStore) restore(owner string, recs []types.PropertyRecord) {
	s.track(owner)
	s.set(owner, recs)
}

func (s *PropertyStore) track(owner string) {
	if !s.seen[owner] {
		s.seen[owner] = true
		s.owners = append(s.owners, owner)
	}
}

func (s *PropertyStore) set(owner string, recs []types.PropertyRecord) {
	if len(recs) == 0 {
		delete(s.byOwner, owner)
		return
	}
	s.byOwner[owner] = recs
}

// Pass is the state of one commit pass over a record stream: the object
// records, the staged properties, and the objects loaded so far. A Pass is
// owned by a single session and driven by one commit at a time.
type Pass struct {
	objects  []types.ObjectRecord
	byID     map[string]types.ObjectRecord
	children map[string][]types.ObjectRecord
	pending  *PropertyStore
	loaded   map[string]types.Object
	active   map[string]bool

	// holding is set while a batch commit may put records aside until the
	// objects they reference are loaded.
	holding bool
	held    []heldRecord
}

// heldRecord is an object record put aside by a batch commit. parent is the
// object it attaches to, nil for roots.
type heldRecord struct {
	parent types.Object
	rec    types.ObjectRecord
}

// NewPass prepares a commit pass. Object ids must be unique within the
// stream; a repeated id fails with ErrDuplicateObject.
func NewPass(objects []types.ObjectRecord, properties []types.PropertyRecord) (*Pass, error) {
	p := &Pass{
		objects:  objects,
		byID:     make(map[string]types.ObjectRecord, len(objects)),
		children: make(map[string][]types.ObjectRecord),
		pending:  NewPropertyStore(properties...),
		loaded:   make(map[string]types.Object),
		active:   make(map[string]bool),
	}
	for _, rec := range objects {
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: empty id for %s record", types.ErrInvalidID, rec.TypeName)
		}
		if _, dup := p.byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateObject, rec.ID)
		}
		p.byID[rec.ID] = rec
		if rec.ParentID != "" {
			p.children[rec.ParentID] = append(p.children[rec.ParentID], rec)
		}
	}
	return p, nil
}

// Objects returns the object records of the stream in arrival order.
func (p *Pass) Objects() []types.ObjectRecord { return p.objects }

// Record returns the object record for id.
func (p *Pass) Record(id string) (types.ObjectRecord, bool) {
	rec, ok := p.byID[id]
	return rec, ok
}

// ChildRecords returns the records whose parent is id, in arrival order.
func (p *Pass) ChildRecords(id string) []types.ObjectRecord {
	return p.children[id]
}

// Pending returns the pass's staged properties.
func (p *Pass) Pending() *PropertyStore { return p.pending }

// Loaded returns the object constructed for id during this pass.
func (p *Pass) Loaded(id string) (types.Object, bool) {
	obj, ok := p.loaded[id]
	return obj, ok
}

// IsLoaded reports whether id has been committed in this pass.
func (p *Pass) IsLoaded(id string) bool {
	_, ok := p.loaded[id]
	return ok
}

// MarkLoaded records obj as the committed instance for its id.
func (p *Pass) MarkLoaded(obj types.Object) {
	p.loaded[obj.UUID()] = obj
	delete(p.active, obj.UUID())
}

// enter marks id as under construction. It returns ErrCycle if id is
// already being constructed further up the call chain.
func (p *Pass) enter(id string) error {
	if p.active[id] {
		return fmt.Errorf("%w: %s", types.ErrCycle, id)
	}
	p.active[id] = true
	return nil
}

func (p *Pass) leave(id string) { delete(p.active, id) }

func (p *Pass) hold(parent types.Object, rec types.ObjectRecord) {
	p.held = append(p.held, heldRecord{parent: parent, rec: rec})
}

// takeHeld returns the held records and clears the list.
func (p *Pass) takeHeld() []heldRecord {
	held := p.held
	p.held = nil
	return held
}

// Roots returns the records whose parent is not part of the stream, in
// arrival order.
func (p *Pass) Roots() []types.ObjectRecord {
	var roots []types.ObjectRecord
	for _, rec := range p.objects {
		if _, ok := p.byID[rec.ParentID]; rec.ParentID == "" || !ok {
			roots = append(roots, rec)
		}
	}
	return roots
}

// inCycle reports whether following parent ids up from id loops back
// instead of reaching a root.
func (p *Pass) inCycle(id string) bool {
	seen := make(map[string]bool)
	for {
		if seen[id] {
			return true
		}
		seen[id] = true
		rec, ok := p.byID[id]
		if !ok || rec.ParentID == "" {
			return false
		}
		id = rec.ParentID
	}
}
