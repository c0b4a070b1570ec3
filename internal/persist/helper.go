package persist

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Helper constructs, mutates, queries and replays objects of one concrete
// type. Every registered type has exactly one Helper.
type Helper interface {
	// TypeName returns the type name the Helper is registered under.
	TypeName() string

	// AcceptsChildren reports whether objects of this type hold children.
	AcceptsChildren() bool

	// PropertyNames returns the persistable property names in canonical
	// emission order.
	PropertyNames() []string

	// CommitObject constructs the object described by rec from the
	// properties staged in pass, commits its children through f, and
	// applies its remaining staged properties. It returns the instance
	// already loaded for rec.ID without constructing a second one.
	CommitObject(f *Factory, pass *Pass, rec types.ObjectRecord) (types.Object, error)

	// CommitProperty converts raw and hands it to the named mutator.
	CommitProperty(obj types.Object, name string, raw any, conv Converter, refs Resolver) error

	// FindProperty reads the named accessor and returns the basic value.
	FindProperty(obj types.Object, name string, conv Converter) (any, error)

	// PersistObject emits one ObjectRecord for obj and one PropertyRecord
	// per persistable property, in canonical order.
	PersistObject(obj types.Object, index int, sink types.Sink, conv Converter) error
}

// Property describes one property of T. Get is nil for write-only
// properties and Set is nil for properties only a constructor can assign.
type Property[T types.Object] struct {
	Name string
	Type Type
	Get  func(T) any
	Set  func(T, any) error
}

// Descriptor is the explicit metadata table for one concrete type.
type Descriptor[T types.Object] struct {
	TypeName string

	// Required lists the constructor arguments in the order New expects
	// them. Each name must appear in Properties.
	Required []string

	// New constructs an instance from converted Required values.
	New func(args []any) (T, error)

	// Properties lists every property of the type. Declaration order is
	// the canonical emission order after the Required properties.
	Properties []Property[T]

	// AcceptsChildren marks container types.
	AcceptsChildren bool

	// ChildTypes orders the commit of children by type. Children of types
	// not listed commit after the listed ones.
	ChildTypes []string
}

// TypeHelper is the Helper built from a Descriptor.
type TypeHelper[T types.Object] struct {
	desc        Descriptor[T]
	props       map[string]*Property[T]
	persistable []*Property[T]
	childRank   map[string]int
}

var _ Helper = (*TypeHelper[types.Object])(nil)

// NewHelper validates d and builds its Helper.
func NewHelper[T types.Object](d Descriptor[T]) (*TypeHelper[T], error) {
	if d.TypeName == "" {
		return nil, errors.New("helper: empty type name")
	}
	if d.New == nil {
		return nil, fmt.Errorf("helper %s: missing constructor", d.TypeName)
	}
	h := &TypeHelper[T]{
		desc:      d,
		props:     make(map[string]*Property[T], len(d.Properties)),
		childRank: make(map[string]int, len(d.ChildTypes)),
	}
	for i := range d.Properties {
		p := &h.desc.Properties[i]
		if p.Name == "" {
			return nil, fmt.Errorf("helper %s: property %d has no name", d.TypeName, i)
		}
		if _, dup := h.props[p.Name]; dup {
			return nil, fmt.Errorf("helper %s: duplicate property %q", d.TypeName, p.Name)
		}
		h.props[p.Name] = p
	}

	required := make(map[string]bool, len(d.Required))
	for _, name := range d.Required {
		p, ok := h.props[name]
		if !ok {
			return nil, fmt.Errorf("helper %s: required property %q not declared", d.TypeName, name)
		}
		if required[name] {
			return nil, fmt.Errorf("helper %s: required property %q listed twice", d.TypeName, name)
		}
		required[name] = true
		if p.Get != nil {
			h.persistable = append(h.persistable, p)
		}
	}
	for i := range h.desc.Properties {
		p := &h.desc.Properties[i]
		if !required[p.Name] && p.Get != nil && p.Set != nil {
			h.persistable = append(h.persistable, p)
		}
	}

	for i, name := range d.ChildTypes {
		h.childRank[name] = i
	}
	return h, nil
}

// MustHelper is NewHelper that panics on an invalid descriptor. It is meant
// for package-level registries.
func MustHelper[T types.Object](d Descriptor[T]) *TypeHelper[T] {
	h, err := NewHelper(d)
	if err != nil {
		panic(err)
	}
	return h
}

// TypeName implements Helper.
func (h *TypeHelper[T]) TypeName() string { return h.desc.TypeName }

// AcceptsChildren implements Helper.
func (h *TypeHelper[T]) AcceptsChildren() bool { return h.desc.AcceptsChildren }

// PropertyNames implements Helper.
func (h *TypeHelper[T]) PropertyNames() []string {
	names := make([]string, len(h.persistable))
	for i, p := range h.persistable {
		names[i] = p.Name
	}
	return names
}

// CommitObject implements Helper.
//
// Constructor arguments are taken from the staged records oldest first.
// When construction fails, the records taken for the constructor are staged
// again and nothing is marked loaded. Once the instance exists it is kept:
// a failing child is left out while its siblings still commit, and a
// failing post-construction property leaves the instance loaded with the
// properties applied so far, the failing record and those after it staying
// staged. Such failures are returned with the instance.
//
// During a batch commit, a record whose staged references name objects of
// the stream that are not loaded yet returns errHeld untouched.
func (h *TypeHelper[T]) CommitObject(f *Factory, pass *Pass, rec types.ObjectRecord) (types.Object, error) {
	if obj, ok := pass.Loaded(rec.ID); ok {
		return obj, nil
	}
	if pass.holding {
		if target, waiting := h.awaiting(pass, rec.ID); waiting {
			return nil, fmt.Errorf("%w: %s %s references %s", errHeld, h.desc.TypeName, rec.ID, target)
		}
	}
	if err := pass.enter(rec.ID); err != nil {
		return nil, err
	}
	defer pass.leave(rec.ID)

	pending := pass.Pending()
	staged := pending.Get(rec.ID)
	refs := f.resolverFor(pass)

	args := make([]any, len(h.desc.Required))
	for i, name := range h.desc.Required {
		sp, ok := pending.Take(rec.ID, name)
		if !ok {
			pending.restore(rec.ID, staged)
			return nil, h.propertyError(rec.ID, name, types.ErrMissingRequiredProperty)
		}
		v, err := f.converter.ToRich(sp.Value, h.props[name].Type, refs)
		if err != nil {
			pending.restore(rec.ID, staged)
			return nil, h.propertyError(rec.ID, name, err)
		}
		args[i] = v
	}

	obj, err := h.desc.New(args)
	if err != nil {
		pending.restore(rec.ID, staged)
		return nil, fmt.Errorf("construct %s %s: %w", h.desc.TypeName, rec.ID, err)
	}
	obj.SetUUID(rec.ID)
	f.log.Debug().Str("type", h.desc.TypeName).Str("id", rec.ID).Msg("constructed object")

	childErr := h.commitChildren(f, pass, obj, rec)

	for {
		sp, ok := pending.Peek(rec.ID)
		if !ok {
			break
		}
		p, known := h.props[sp.Name]
		if !known || p.Set == nil {
			pending.Pop(rec.ID)
			f.log.Debug().Str("type", h.desc.TypeName).Str("id", rec.ID).Str("property", sp.Name).
				Msg("skipped unknown staged property")
			f.notify(Event{Kind: PropertySkipped, ID: rec.ID, TypeName: h.desc.TypeName, Property: sp.Name})
			continue
		}
		if err := h.apply(obj, rec.ID, p, sp.Value, f.converter, refs); err != nil {
			pass.MarkLoaded(obj)
			return obj, errors.Join(childErr, err)
		}
		pending.Pop(rec.ID)
		f.notify(Event{Kind: PropertyApplied, ID: rec.ID, TypeName: h.desc.TypeName, Property: sp.Name})
	}

	pass.MarkLoaded(obj)
	f.notify(Event{Kind: ObjectCommitted, ID: rec.ID, TypeName: h.desc.TypeName})
	return obj, childErr
}

// awaiting returns the first object of the stream that a staged reference
// of id names and that is not loaded yet.
func (h *TypeHelper[T]) awaiting(pass *Pass, id string) (string, bool) {
	for _, sp := range pass.Pending().Get(id) {
		p, ok := h.props[sp.Name]
		if !ok || p.Type.Kind != KindReference {
			continue
		}
		target, ok := sp.Value.(string)
		if !ok || target == id || pass.IsLoaded(target) {
			continue
		}
		if _, inStream := pass.Record(target); inStream {
			return target, true
		}
	}
	return "", false
}

// commitChildren commits the child records of rec through f and attaches
// them to parent, grouped by ChildTypes and ascending Index within a group.
// Records with equal rank and index keep their arrival order. A failing
// child does not stop its siblings; the failures are joined. Held children
// are attached once the batch commit releases them.
func (h *TypeHelper[T]) commitChildren(f *Factory, pass *Pass, parent types.Object, rec types.ObjectRecord) error {
	children := pass.ChildRecords(rec.ID)
	if len(children) == 0 {
		return nil
	}
	if !h.desc.AcceptsChildren {
		return fmt.Errorf("%w: %s %s does not accept children, got %s %s",
			types.ErrInvalidChild, h.desc.TypeName, rec.ID, children[0].TypeName, children[0].ID)
	}

	ordered := slices.Clone(children)
	slices.SortStableFunc(ordered, func(a, b types.ObjectRecord) int {
		if c := cmp.Compare(h.rank(a.TypeName), h.rank(b.TypeName)); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	var errs []error
	for _, cr := range ordered {
		child, err := f.CommitObject(pass, cr)
		if errors.Is(err, errHeld) {
			pass.hold(parent, cr)
			continue
		}
		if child != nil {
			if aerr := attachChild(parent, child, cr); aerr != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", h.desc.TypeName, rec.ID, aerr))
			}
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: child %s %s: %w", h.desc.TypeName, rec.ID, cr.TypeName, cr.ID, err))
		}
	}
	return errors.Join(errs...)
}

// attachChild adds child to parent unless it already has a parent.
func attachChild(parent, child types.Object, cr types.ObjectRecord) error {
	if !isNilObject(child.Parent()) {
		return nil
	}
	if err := parent.AddChild(child, cr.Index); err != nil {
		return fmt.Errorf("attach %s %s: %w", cr.TypeName, cr.ID, err)
	}
	return nil
}

func (h *TypeHelper[T]) rank(typeName string) int {
	if r, ok := h.childRank[typeName]; ok {
		return r
	}
	return len(h.childRank)
}

// CommitProperty implements Helper. The name must match a mutable property
// exactly.
func (h *TypeHelper[T]) CommitProperty(obj types.Object, name string, raw any, conv Converter, refs Resolver) error {
	t, err := h.cast(obj)
	if err != nil {
		return err
	}
	p, ok := h.props[name]
	if !ok || p.Set == nil {
		return h.propertyError(obj.UUID(), name, types.ErrUnknownProperty)
	}
	return h.apply(t, obj.UUID(), p, raw, conv, refs)
}

func (h *TypeHelper[T]) apply(t T, id string, p *Property[T], raw any, conv Converter, refs Resolver) error {
	v, err := conv.ToRich(raw, p.Type, refs)
	if err != nil {
		return h.propertyError(id, p.Name, err)
	}
	if err := p.Set(t, v); err != nil {
		return h.propertyError(id, p.Name, err)
	}
	return nil
}

// FindProperty implements Helper.
func (h *TypeHelper[T]) FindProperty(obj types.Object, name string, conv Converter) (any, error) {
	t, err := h.cast(obj)
	if err != nil {
		return nil, err
	}
	p, ok := h.props[name]
	if !ok || p.Get == nil {
		return nil, h.propertyError(obj.UUID(), name, types.ErrUnknownProperty)
	}
	v, _, err := conv.ToBasic(p.Get(t))
	if err != nil {
		return nil, h.propertyError(obj.UUID(), name, err)
	}
	return v, nil
}

// PersistObject implements Helper.
func (h *TypeHelper[T]) PersistObject(obj types.Object, index int, sink types.Sink, conv Converter) error {
	t, err := h.cast(obj)
	if err != nil {
		return err
	}
	id := obj.UUID()
	if id == "" {
		return fmt.Errorf("%w: %s has no id", types.ErrInvalidID, h.desc.TypeName)
	}
	var parentID string
	if parent := obj.Parent(); !isNilObject(parent) {
		parentID = parent.UUID()
	}
	if err := sink.EmitObject(types.ObjectRecord{
		ID:       id,
		TypeName: h.desc.TypeName,
		ParentID: parentID,
		Index:    index,
	}); err != nil {
		return &types.SinkError{Err: err}
	}

	for _, p := range h.persistable {
		v, vt, err := conv.ToBasic(p.Get(t))
		if err != nil {
			return h.propertyError(id, p.Name, err)
		}
		if err := sink.EmitProperty(types.PropertyRecord{
			OwnerID:   id,
			Name:      p.Name,
			Value:     v,
			ValueType: vt,
		}); err != nil {
			return &types.SinkError{Err: err}
		}
	}
	return nil
}

func (h *TypeHelper[T]) cast(obj types.Object) (T, error) {
	t, ok := obj.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s helper cannot handle %T", types.ErrTypeMismatch, h.desc.TypeName, obj)
	}
	return t, nil
}

func (h *TypeHelper[T]) propertyError(id, name string, err error) error {
	return &types.PropertyError{TypeName: h.desc.TypeName, ID: id, Property: name, Err: err}
}
