package persist

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

func newPass(t *testing.T, objects []types.ObjectRecord, props ...types.PropertyRecord) *Pass {
	t.Helper()
	pass, err := NewPass(objects, props)
	require.NoError(t, err)
	return pass
}

// sampleBox is a box holding an inner box and two items, the second
// linked to the first.
func sampleBox() *box {
	outer := &box{id: "B", name: "outer", opened: time.UnixMilli(1700000000123).UTC()}
	inner := &box{id: "B2", name: "inner"}
	first := &item{id: "i0", label: "first", weight: 3, ratio: 0.5}
	second := &item{id: "i1", label: "second", link: first}
	for _, c := range []types.Object{inner, first, second} {
		_ = outer.AddChild(c, 0)
	}
	return outer
}

func TestPersistTreeThenCommit(t *testing.T) {
	rec := &recorder{}
	f := NewFactory(testRegistry(), rec)
	original := sampleBox()
	require.NoError(t, f.PersistTree(original, 0))

	assert.Equal(t, []types.ObjectRecord{
		{ID: "B", TypeName: "box", Index: 0},
		{ID: "B2", TypeName: "box", ParentID: "B", Index: 0},
		{ID: "i0", TypeName: "item", ParentID: "B", Index: 0},
		{ID: "i1", TypeName: "item", ParentID: "B", Index: 1},
	}, rec.objects)

	pass := newPass(t, rec.objects, rec.properties...)
	roots, err := NewFactory(testRegistry(), nil).Commit(pass)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	want, err := f.Snapshot(original)
	require.NoError(t, err)
	got, err := f.Snapshot(roots[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)

	committed := roots[0].(*box)
	require.Len(t, committed.kids, 3)
	assert.Same(t, committed.kids[1], committed.kids[2].(*item).link)
}

func TestPersistObjectIsIdempotent(t *testing.T) {
	obj := sampleBox().kids[1]
	first, second := &recorder{}, &recorder{}
	require.NoError(t, NewFactory(testRegistry(), first).PersistObject(obj, 0))
	require.NoError(t, NewFactory(testRegistry(), second).PersistObject(obj, 0))
	assert.Equal(t, first.objects, second.objects)
	assert.Equal(t, first.properties, second.properties)
}

func TestCommitEvents(t *testing.T) {
	var q Queue
	f := NewFactory(testRegistry(), nil, WithListener(q.Listen))
	pass := newPass(t,
		[]types.ObjectRecord{{ID: "B", TypeName: "box"}, {ID: "i", TypeName: "item", ParentID: "B"}},
		prop("i", "label", "x", types.ValueString),
		prop("i", "weight", 2, types.ValueInteger),
		prop("B", "name", "b", types.ValueString),
		prop("B", "size", 9, types.ValueInteger),
	)
	_, err := f.Commit(pass)
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Kind: PropertyApplied, ID: "i", TypeName: "item", Property: "weight"},
		{Kind: ObjectCommitted, ID: "i", TypeName: "item"},
		{Kind: PropertyApplied, ID: "B", TypeName: "box", Property: "name"},
		{Kind: PropertySkipped, ID: "B", TypeName: "box", Property: "size"},
		{Kind: ObjectCommitted, ID: "B", TypeName: "box"},
	}, q.Events)
}

func TestCommitFailures(t *testing.T) {
	tests := []struct {
		name    string
		objects []types.ObjectRecord
		props   []types.PropertyRecord
		wantErr error
		check   func(t *testing.T, pass *Pass, roots []types.Object, err error)
	}{
		{
			name:    "missing required property",
			objects: []types.ObjectRecord{{ID: "i", TypeName: "item"}},
			props:   []types.PropertyRecord{prop("i", "weight", 1, types.ValueInteger)},
			wantErr: types.ErrMissingRequiredProperty,
			check: func(t *testing.T, pass *Pass, roots []types.Object, _ error) {
				assert.Empty(t, roots)
				assert.False(t, pass.IsLoaded("i"))
			},
		},
		{
			name:    "constructor rejects arguments",
			objects: []types.ObjectRecord{{ID: "i", TypeName: "item"}},
			props:   []types.PropertyRecord{prop("i", "label", "", types.ValueString)},
			check: func(t *testing.T, pass *Pass, roots []types.Object, err error) {
				assert.ErrorContains(t, err, "construct item i")
				assert.Empty(t, roots)
				assert.Len(t, pass.Pending().Get("i"), 1, "label is staged again")
			},
		},
		{
			name:    "mutator failure leaves a live partial instance",
			objects: []types.ObjectRecord{{ID: "i", TypeName: "item"}},
			props: []types.PropertyRecord{
				prop("i", "label", "x", types.ValueString),
				prop("i", "ratio", 0.5, types.ValueDouble),
				prop("i", "weight", 500, types.ValueInteger),
			},
			wantErr: errTooHeavy,
			check: func(t *testing.T, pass *Pass, roots []types.Object, err error) {
				require.Len(t, roots, 1)
				assert.Equal(t, 0.5, roots[0].(*item).ratio)
				assert.True(t, pass.IsLoaded("i"))
				var perr *types.PropertyError
				require.ErrorAs(t, err, &perr)
				assert.Equal(t, "weight", perr.Property)
			},
		},
		{
			name:    "dangling property",
			objects: []types.ObjectRecord{{ID: "B", TypeName: "box"}},
			props:   []types.PropertyRecord{prop("ghost", "name", "x", types.ValueString)},
			wantErr: types.ErrDanglingProperty,
			check: func(t *testing.T, _ *Pass, roots []types.Object, _ error) {
				assert.Len(t, roots, 1, "other roots still commit")
			},
		},
		{
			name: "parent chain loops",
			objects: []types.ObjectRecord{
				{ID: "A", TypeName: "box", ParentID: "C"},
				{ID: "C", TypeName: "box", ParentID: "A"},
			},
			wantErr: types.ErrCycle,
		},
		{
			name: "failing root does not undo earlier roots",
			objects: []types.ObjectRecord{
				{ID: "B", TypeName: "box"},
				{ID: "i", TypeName: "item"},
			},
			props:   []types.PropertyRecord{prop("B", "name", "kept", types.ValueString)},
			wantErr: types.ErrMissingRequiredProperty,
			check: func(t *testing.T, pass *Pass, roots []types.Object, _ error) {
				require.Len(t, roots, 1)
				assert.Equal(t, "kept", roots[0].(*box).name)
				assert.True(t, pass.IsLoaded("B"))
			},
		},
		{
			name: "failing child keeps its parent and siblings",
			objects: []types.ObjectRecord{
				{ID: "B", TypeName: "box"},
				{ID: "i0", TypeName: "item", ParentID: "B", Index: 0},
				{ID: "i1", TypeName: "item", ParentID: "B", Index: 1},
				{ID: "i2", TypeName: "item", ParentID: "B", Index: 2},
			},
			props: []types.PropertyRecord{
				prop("B", "name", "kept", types.ValueString),
				prop("i0", "label", "a", types.ValueString),
				prop("i2", "label", "c", types.ValueString),
			},
			wantErr: types.ErrMissingRequiredProperty,
			check: func(t *testing.T, pass *Pass, roots []types.Object, err error) {
				require.Len(t, roots, 1)
				b := roots[0].(*box)
				assert.Equal(t, "kept", b.name, "parent properties still apply")
				assert.True(t, pass.IsLoaded("B"))
				require.Len(t, b.kids, 2)
				assert.Equal(t, "a", b.kids[0].(*item).label)
				assert.Equal(t, "c", b.kids[1].(*item).label)
				assert.False(t, pass.IsLoaded("i1"))
				assert.ErrorContains(t, err, "child item i1")
			},
		},
		{
			name: "link to an object that never loads",
			objects: []types.ObjectRecord{
				{ID: "i0", TypeName: "item"},
				{ID: "i9", TypeName: "item"},
			},
			props: []types.PropertyRecord{
				prop("i0", "label", "a", types.ValueString),
				prop("i0", "link", "i9", types.ValueReference),
			},
			wantErr: types.ErrConversion,
			check: func(t *testing.T, pass *Pass, roots []types.Object, err error) {
				require.Len(t, roots, 1)
				assert.Equal(t, "i0", roots[0].UUID())
				assert.Nil(t, roots[0].(*item).link)
				assert.ErrorIs(t, err, types.ErrMissingRequiredProperty, "i9 reports its own failure")
			},
		},
		{
			name: "item does not hold children",
			objects: []types.ObjectRecord{
				{ID: "i", TypeName: "item"},
				{ID: "B", TypeName: "box", ParentID: "i"},
			},
			props:   []types.PropertyRecord{prop("i", "label", "x", types.ValueString)},
			wantErr: types.ErrInvalidChild,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := newPass(t, tt.objects, tt.props...)
			roots, err := NewFactory(testRegistry(), nil).Commit(pass)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, pass, roots, err)
			}
		})
	}
}

func TestCommitLinksToLaterObjects(t *testing.T) {
	pass := newPass(t,
		[]types.ObjectRecord{
			{ID: "B", TypeName: "box"},
			{ID: "i0", TypeName: "item", ParentID: "B", Index: 0},
			{ID: "i1", TypeName: "item", ParentID: "B", Index: 1},
			{ID: "r", TypeName: "item"},
			{ID: "z", TypeName: "item"},
		},
		prop("i0", "label", "first", types.ValueString),
		prop("i0", "link", "i1", types.ValueReference),
		prop("i1", "label", "second", types.ValueString),
		prop("r", "label", "root", types.ValueString),
		prop("r", "link", "z", types.ValueReference),
		prop("z", "label", "last", types.ValueString),
	)
	roots, err := NewFactory(testRegistry(), nil).Commit(pass)
	require.NoError(t, err)
	require.Len(t, roots, 3)

	b := roots[0].(*box)
	require.Len(t, b.kids, 2)
	first, ok := pass.Loaded("i0")
	require.True(t, ok)
	second, ok := pass.Loaded("i1")
	require.True(t, ok)
	assert.Same(t, b, first.Parent())
	assert.Same(t, second, first.(*item).link)

	last, ok := pass.Loaded("z")
	require.True(t, ok)
	assert.Same(t, last, roots[1], "roots keep the order they were committed in")
	assert.Equal(t, "r", roots[2].UUID())
	assert.Same(t, last, roots[2].(*item).link)
	assert.Zero(t, pass.Pending().Len())
}

func TestCommitObjectCycle(t *testing.T) {
	pass := newPass(t, []types.ObjectRecord{
		{ID: "A", TypeName: "box", ParentID: "C"},
		{ID: "C", TypeName: "box", ParentID: "A"},
	})
	_, err := NewFactory(testRegistry(), nil).CommitObject(pass, types.ObjectRecord{ID: "A", TypeName: "box", ParentID: "C"})
	assert.ErrorIs(t, err, types.ErrCycle)
	assert.False(t, pass.IsLoaded("A"))
}

func TestCommitAppliesToResolvedOwners(t *testing.T) {
	earlier := &box{id: "old"}
	f := NewFactory(testRegistry(), nil, WithResolver(ResolverFunc(func(id string) (types.Object, bool) {
		if id == "old" {
			return earlier, true
		}
		return nil, false
	})))
	pass := newPass(t,
		[]types.ObjectRecord{{ID: "i", TypeName: "item", ParentID: "old"}},
		prop("i", "label", "x", types.ValueString),
		prop("i", "link", "old", types.ValueReference),
		prop("old", "name", "renamed", types.ValueString),
	)
	roots, err := f.Commit(pass)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Same(t, earlier, roots[0].(*item).link)
	assert.Same(t, earlier, roots[0].Parent(), "root attaches to its earlier parent")
	assert.Equal(t, "renamed", earlier.name)
}

func TestCommitPropertyAndFindProperty(t *testing.T) {
	f := NewFactory(testRegistry(), nil)
	it := &item{id: "i", label: "x"}

	require.NoError(t, f.CommitProperty(it, "weight", 7))
	v, err := f.FindProperty(it, "weight")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	require.NoError(t, f.CommitProperty(it, "secret", "s"), "write-only properties accept values")
	assert.Equal(t, "s", it.secret)
	_, err = f.FindProperty(it, "secret")
	assert.ErrorIs(t, err, types.ErrUnknownProperty)

	assert.ErrorIs(t, f.CommitProperty(it, "label", "y"), types.ErrUnknownProperty, "constructor-only")
	assert.ErrorIs(t, f.CommitProperty(it, "Weight", 1), types.ErrUnknownProperty, "names are exact")
	assert.ErrorIs(t, f.CommitProperty(it, "weight", "heavy"), types.ErrConversion)
	assert.ErrorIs(t, f.CommitProperty(it, "weight", 101), errTooHeavy)

	_, err = f.FindProperty(&struct{ item }{}, "weight")
	assert.ErrorIs(t, err, types.ErrTypeMismatch)
}

func TestPersistErrors(t *testing.T) {
	t.Run("no sink", func(t *testing.T) {
		err := NewFactory(testRegistry(), nil).PersistObject(&box{id: "B"}, 0)
		var serr *types.SinkError
		assert.ErrorAs(t, err, &serr)
	})

	t.Run("sink failure passes through", func(t *testing.T) {
		rec := &recorder{failAfter: 2}
		err := NewFactory(testRegistry(), rec).PersistObject(&item{id: "i", label: "x"}, 0)
		var serr *types.SinkError
		require.ErrorAs(t, err, &serr)
		assert.True(t, errors.Is(err, errSinkDown))
		assert.Len(t, rec.objects, 1)
		assert.Len(t, rec.properties, 1, "emission stops at the failure")
	})

	t.Run("object without id", func(t *testing.T) {
		err := NewFactory(testRegistry(), &recorder{}).PersistObject(&box{}, 0)
		assert.ErrorIs(t, err, types.ErrInvalidID)
	})
}

func TestSnapshotOmitsNullValues(t *testing.T) {
	f := NewFactory(testRegistry(), nil)
	n, err := f.Snapshot(&box{id: "B", name: "b"})
	require.NoError(t, err)
	assert.Equal(t, Node{Type: "box", ID: "B", Properties: map[string]any{"name": "b"}}, n)
}
