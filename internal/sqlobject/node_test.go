package sqlobject

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

func TestNewIDIsVersion7(t *testing.T) {
	id := NewID()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, NewID())
}

func TestAddChild(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "index is clamped to the siblings of the same type",
			check: func(t *testing.T) {
				table := NewTable("t")
				a, b, c := NewColumn("a", FieldName), NewColumn("b", FieldName), NewColumn("c", FieldName)
				require.NoError(t, table.AddChild(b, 99))
				require.NoError(t, table.AddChild(a, -3))
				require.NoError(t, table.AddChild(c, 2))
				assert.Equal(t, []*Column{a, b, c}, table.Columns())
				assert.Same(t, table, a.Parent())
			},
		},
		{
			name: "children are grouped by accepted type",
			check: func(t *testing.T) {
				schema := NewSchema("s")
				t1, t2 := NewTable("t1"), NewTable("t2")
				rel := NewRelationship(t1, t2)
				require.NoError(t, schema.AddChild(rel, 0))
				require.NoError(t, schema.AddChild(t2, 0))
				require.NoError(t, schema.AddChild(t1, 0))
				assert.Equal(t, []types.Object{t1, t2, rel}, schema.Children())
			},
		},
		{
			name: "schema only lives under a database or catalog",
			check: func(t *testing.T) {
				assert.NoError(t, NewDatabase().AddChild(NewSchema("a"), 0))
				assert.NoError(t, NewCatalog("c").AddChild(NewSchema("b"), 0))
				assert.ErrorIs(t, NewTable("t").AddChild(NewSchema("c"), 0), types.ErrInvalidChild)
				assert.ErrorIs(t, NewSchema("s").AddChild(NewSchema("d"), 0), types.ErrInvalidChild)
			},
		},
		{
			name: "a child cannot have two parents",
			check: func(t *testing.T) {
				col := NewColumn("id", FieldRowID)
				require.NoError(t, NewTable("a").AddChild(col, 0))
				assert.ErrorIs(t, NewTable("b").AddChild(col, 0), types.ErrInvalidChild)
			},
		},
		{
			name: "nil child is rejected",
			check: func(t *testing.T) {
				assert.ErrorIs(t, NewTable("t").AddChild(nil, 0), types.ErrInvalidChild)
			},
		},
		{
			name: "removed child can be attached elsewhere",
			check: func(t *testing.T) {
				a, b := NewTable("a"), NewTable("b")
				col := NewColumn("id", FieldRowID)
				require.NoError(t, a.AddChild(col, 0))
				assert.True(t, a.RemoveChild(col))
				assert.False(t, a.RemoveChild(col))
				assert.Nil(t, col.Parent())
				require.NoError(t, b.AddChild(col, 0))
				assert.Empty(t, a.Columns())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.check)
	}
}

func TestNativeTermIsLowerCased(t *testing.T) {
	s := NewSchema("s")
	assert.Equal(t, "schema", s.NativeTerm())
	s.SetNativeTerm("OWNER")
	assert.Equal(t, "owner", s.NativeTerm())
	s.SetNativeTerm("ÉCOLE")
	assert.Equal(t, "école", s.NativeTerm())

	c := NewCatalog("c")
	assert.Equal(t, "catalog", c.NativeTerm())
	c.SetNativeTerm("Database")
	assert.Equal(t, "database", c.NativeTerm())
}

func TestTableDefaults(t *testing.T) {
	table := NewTable("t")
	assert.Equal(t, DefaultObjectType, table.ObjectType())
	table.SetObjectType("VIEW")
	assert.Equal(t, "VIEW", table.ObjectType())
	table.SetObjectType("")
	assert.Equal(t, DefaultObjectType, table.ObjectType())
	assert.Error(t, table.SetRowCount(-1))
}

func TestTableLastModifiedKeepsMilliseconds(t *testing.T) {
	table := NewTable("t")
	at := time.Date(2024, 3, 1, 12, 30, 0, 123_456_789, time.FixedZone("CET", 3600))
	table.SetLastModified(at)
	assert.Equal(t, time.Date(2024, 3, 1, 11, 30, 0, 123_000_000, time.UTC), table.LastModified())

	table.SetLastModified(time.Time{})
	assert.True(t, table.LastModified().IsZero())
}

func TestColumnSelectivityRange(t *testing.T) {
	col := NewColumn("c", FieldNumber)
	require.NoError(t, col.SetSelectivity(0))
	require.NoError(t, col.SetSelectivity(1))
	for _, f := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
		assert.Error(t, col.SetSelectivity(f), "%v", f)
	}
	assert.Equal(t, 1.0, col.Selectivity())
}
