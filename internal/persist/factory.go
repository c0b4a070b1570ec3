package persist

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Factory dispatches commit, query and replay calls to the Helper registered
// for an object's type, threading the Converter, the session's Sink and the
// commit Pass through.
//
// A Factory belongs to one session. The Registry behind it is shared.
type Factory struct {
	registry  *Registry
	converter Converter
	sink      types.Sink
	resolver  Resolver
	listener  Listener
	log       zerolog.Logger
}

// errHeld marks a record a batch commit puts aside until the objects it
// references are loaded.
var errHeld = errors.New("waiting for a referenced object")

// Option configures a Factory.
type Option func(*Factory)

// WithResolver resolves references and property owners that are not part
// of the current pass, typically objects committed by earlier passes.
func WithResolver(r Resolver) Option {
	return func(f *Factory) { f.resolver = r }
}

// WithListener delivers commit events to l.
func WithListener(l Listener) Option {
	return func(f *Factory) { f.listener = l }
}

// WithLogger sets the Factory's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(f *Factory) { f.log = log }
}

// NewFactory returns a Factory over registry that emits to sink. The sink
// may be nil for sessions that only commit.
func NewFactory(registry *Registry, sink types.Sink, opts ...Option) *Factory {
	f := &Factory{
		registry: registry,
		sink:     sink,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the Factory's registry.
func (f *Factory) Registry() *Registry { return f.registry }

// Converter returns the Factory's converter.
func (f *Factory) Converter() Converter { return f.converter }

// GetHelper returns the Helper for typeName.
func (f *Factory) GetHelper(typeName string) (Helper, error) {
	return f.registry.Helper(typeName)
}

// CommitObject constructs the object described by rec, and its children,
// from the records of pass.
func (f *Factory) CommitObject(pass *Pass, rec types.ObjectRecord) (types.Object, error) {
	h, err := f.GetHelper(rec.TypeName)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", rec.ID, err)
	}
	return h.CommitObject(f, pass, rec)
}

// CommitProperty converts raw and applies it to the named mutable property
// of obj.
func (f *Factory) CommitProperty(obj types.Object, name string, raw any) error {
	return f.commitProperty(obj, name, raw, f.resolver)
}

func (f *Factory) commitProperty(obj types.Object, name string, raw any, refs Resolver) error {
	h, err := f.GetHelper(obj.TypeName())
	if err != nil {
		return err
	}
	if err := h.CommitProperty(obj, name, raw, f.converter, refs); err != nil {
		return err
	}
	f.notify(Event{Kind: PropertyApplied, ID: obj.UUID(), TypeName: obj.TypeName(), Property: name})
	return nil
}

// FindProperty returns the basic form of the named property of obj.
func (f *Factory) FindProperty(obj types.Object, name string) (any, error) {
	h, err := f.GetHelper(obj.TypeName())
	if err != nil {
		return nil, err
	}
	return h.FindProperty(obj, name, f.converter)
}

// PersistObject emits obj and its persistable properties to the sink.
// index is obj's position among its siblings of the same type.
func (f *Factory) PersistObject(obj types.Object, index int) error {
	h, err := f.GetHelper(obj.TypeName())
	if err != nil {
		return err
	}
	if f.sink == nil {
		return &types.SinkError{Err: errors.New("no sink configured")}
	}
	return h.PersistObject(obj, index, f.sink, f.converter)
}

// PersistTree persists obj and then, depth first, each of its descendants
// with its index among siblings of the same type.
func (f *Factory) PersistTree(obj types.Object, index int) error {
	if err := f.PersistObject(obj, index); err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, child := range obj.Children() {
		i := counts[child.TypeName()]
		counts[child.TypeName()]++
		if err := f.PersistTree(child, i); err != nil {
			return err
		}
	}
	return nil
}

// Commit commits every root of pass in arrival order, then applies the
// staged properties whose owner was committed before this pass and is
// reachable through the Factory's Resolver. A root whose parent is such an
// earlier object is attached to it. Records whose parent chain loops are
// never reached from a root and are reported with ErrCycle.
//
// A record whose references name objects of the stream that are not loaded
// yet is held back and committed once they are, then attached to its
// parent. Records still waiting when nothing more loads are committed
// anyway so that the unresolved reference is reported.
//
// A failing root does not undo roots committed before it. Commit returns
// every root that was constructed, including roots that are live but only
// partly updated, and the joined errors.
func (f *Factory) Commit(pass *Pass) ([]types.Object, error) {
	var (
		roots []types.Object
		errs  []error
	)
	refs := f.resolverFor(pass)
	pass.holding = true
	for _, rec := range pass.Roots() {
		obj, err := f.CommitObject(pass, rec)
		if errors.Is(err, errHeld) {
			pass.hold(nil, rec)
			continue
		}
		roots, errs = f.placeRoot(roots, errs, obj, rec, err, refs)
	}
	for progress := true; progress && len(pass.held) > 0; {
		progress = false
		for _, h := range pass.takeHeld() {
			obj, err := f.CommitObject(pass, h.rec)
			if errors.Is(err, errHeld) {
				pass.hold(h.parent, h.rec)
				continue
			}
			progress = true
			roots, errs = f.release(roots, errs, h, obj, err, refs)
		}
	}
	pass.holding = false
	for _, h := range pass.takeHeld() {
		obj, err := f.CommitObject(pass, h.rec)
		roots, errs = f.release(roots, errs, h, obj, err, refs)
	}

	for _, rec := range pass.Objects() {
		if pass.inCycle(rec.ID) {
			errs = append(errs, fmt.Errorf("%w: %s %s", types.ErrCycle, rec.TypeName, rec.ID))
		}
	}

	pending := pass.Pending()
	for _, owner := range pending.Owners() {
		if _, inStream := pass.Record(owner); inStream {
			// Left staged by a failed commit above.
			continue
		}
		obj, ok := refs.Resolve(owner)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", types.ErrDanglingProperty, owner))
			continue
		}
		for {
			sp, ok := pending.Peek(owner)
			if !ok {
				break
			}
			if err := f.commitProperty(obj, sp.Name, sp.Value, refs); err != nil {
				errs = append(errs, err)
				break
			}
			pending.Pop(owner)
		}
	}

	f.log.Debug().Int("roots", len(roots)).Int("staged", pending.Len()).Int("errors", len(errs)).
		Msg("commit pass finished")
	return roots, errors.Join(errs...)
}

// placeRoot records a committed root and attaches it to an earlier parent.
func (f *Factory) placeRoot(roots []types.Object, errs []error, obj types.Object, rec types.ObjectRecord, err error, refs Resolver) ([]types.Object, []error) {
	if obj != nil {
		roots = append(roots, obj)
		if aerr := f.attach(obj, rec, refs); aerr != nil {
			errs = append(errs, aerr)
		}
	}
	if err != nil {
		errs = append(errs, err)
	}
	return roots, errs
}

// release places a held record once it has been committed.
func (f *Factory) release(roots []types.Object, errs []error, h heldRecord, obj types.Object, err error, refs Resolver) ([]types.Object, []error) {
	if h.parent == nil {
		return f.placeRoot(roots, errs, obj, h.rec, err, refs)
	}
	if obj != nil {
		if aerr := attachChild(h.parent, obj, h.rec); aerr != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", h.parent.TypeName(), h.parent.UUID(), aerr))
		}
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("%s %s: child %s %s: %w", h.parent.TypeName(), h.parent.UUID(), h.rec.TypeName, h.rec.ID, err))
	}
	return roots, errs
}

// attach adds a root whose parent was committed before this pass to that
// parent. Roots with no parent id or an unknown parent stay detached.
func (f *Factory) attach(obj types.Object, rec types.ObjectRecord, refs Resolver) error {
	if rec.ParentID == "" || !isNilObject(obj.Parent()) {
		return nil
	}
	parent, ok := refs.Resolve(rec.ParentID)
	if !ok {
		return nil
	}
	if err := parent.AddChild(obj, rec.Index); err != nil {
		return fmt.Errorf("attach %s %s to %s: %w", rec.TypeName, rec.ID, rec.ParentID, err)
	}
	return nil
}

// resolverFor resolves ids against the objects loaded in pass first and the
// Factory's Resolver second.
func (f *Factory) resolverFor(pass *Pass) Resolver {
	return ResolverFunc(func(id string) (types.Object, bool) {
		if pass != nil {
			if obj, ok := pass.Loaded(id); ok {
				return obj, true
			}
		}
		if f.resolver != nil {
			return f.resolver.Resolve(id)
		}
		return nil, false
	})
}

func (f *Factory) notify(ev Event) {
	if f.listener != nil {
		f.listener(ev)
	}
}
