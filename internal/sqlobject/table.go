package sqlobject

import (
	"errors"
	"math"
	"time"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// DefaultObjectType is the object type of a plain table.
const DefaultObjectType = "TABLE"

// Table is a named relation holding columns.
type Table struct {
	node
	remarks      string
	objectType   string
	physicalName string
	rowCount     int64
	lastModified time.Time
}

var _ types.Object = (*Table)(nil)

// NewTable returns an empty table called name.
func NewTable(name string) *Table {
	t := &Table{objectType: DefaultObjectType}
	t.node = newNode(t, name, TypeColumn)
	return t
}

// TypeName implements types.Object.
func (*Table) TypeName() string { return TypeTable }

// Remarks returns the table comment.
func (t *Table) Remarks() string { return t.remarks }

// SetRemarks sets the table comment.
func (t *Table) SetRemarks(s string) { t.remarks = s }

// ObjectType returns the kind of relation, such as TABLE or VIEW.
func (t *Table) ObjectType() string { return t.objectType }

// SetObjectType sets the kind of relation. An empty value resets it to
// TABLE.
func (t *Table) SetObjectType(s string) {
	if s == "" {
		s = DefaultObjectType
	}
	t.objectType = s
}

// PhysicalName returns the name the table has in the database.
func (t *Table) PhysicalName() string { return t.physicalName }

// SetPhysicalName sets the physical name.
func (t *Table) SetPhysicalName(s string) { t.physicalName = s }

// RowCount returns the last known number of rows.
func (t *Table) RowCount() int64 { return t.rowCount }

// SetRowCount sets the number of rows. Negative counts are rejected.
func (t *Table) SetRowCount(n int64) error {
	if n < 0 {
		return errors.New("row count must not be negative")
	}
	t.rowCount = n
	return nil
}

// LastModified returns when the table definition last changed.
func (t *Table) LastModified() time.Time { return t.lastModified }

// SetLastModified sets the modification time in UTC, truncated to the
// millisecond.
func (t *Table) SetLastModified(at time.Time) {
	if at.IsZero() {
		t.lastModified = time.Time{}
		return
	}
	t.lastModified = at.UTC().Truncate(time.Millisecond)
}

// Columns returns the table's columns in order.
func (t *Table) Columns() []*Column {
	kids := t.ChildrenOf(TypeColumn)
	out := make([]*Column, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.(*Column))
	}
	return out
}

// Column is one typed attribute of a Table.
type Column struct {
	node
	fieldType     FieldType
	precision     int
	scale         int
	nullable      bool
	autoIncrement bool
	defaultValue  string
	remarks       string
	selectivity   float64
}

var _ types.Object = (*Column)(nil)

// NewColumn returns a nullable column called name.
func NewColumn(name string, ft FieldType) *Column {
	c := &Column{fieldType: ft, nullable: true}
	c.node = newNode(c, name)
	return c
}

// TypeName implements types.Object.
func (*Column) TypeName() string { return TypeColumn }

// FieldType returns the column's field type.
func (c *Column) FieldType() FieldType { return c.fieldType }

// SetFieldType sets the field type.
func (c *Column) SetFieldType(ft FieldType) error {
	if !ft.Valid() {
		return ErrUnknownEnum
	}
	c.fieldType = ft
	return nil
}

// Precision returns the column precision.
func (c *Column) Precision() int { return c.precision }

// SetPrecision sets the column precision.
func (c *Column) SetPrecision(n int) { c.precision = n }

// Scale returns the column scale.
func (c *Column) Scale() int { return c.scale }

// SetScale sets the column scale.
func (c *Column) SetScale(n int) { c.scale = n }

// Nullable reports whether the column accepts NULL.
func (c *Column) Nullable() bool { return c.nullable }

// SetNullable sets whether the column accepts NULL.
func (c *Column) SetNullable(b bool) { c.nullable = b }

// AutoIncrement reports whether the database generates the column's values.
func (c *Column) AutoIncrement() bool { return c.autoIncrement }

// SetAutoIncrement sets whether the database generates values.
func (c *Column) SetAutoIncrement(b bool) { c.autoIncrement = b }

// DefaultValue returns the column default as SQL text.
func (c *Column) DefaultValue() string { return c.defaultValue }

// SetDefaultValue sets the column default.
func (c *Column) SetDefaultValue(s string) { c.defaultValue = s }

// Remarks returns the column comment.
func (c *Column) Remarks() string { return c.remarks }

// SetRemarks sets the column comment.
func (c *Column) SetRemarks(s string) { c.remarks = s }

// Selectivity returns the fraction of distinct values, between 0 and 1.
func (c *Column) Selectivity() float64 { return c.selectivity }

// SetSelectivity sets the selectivity.
func (c *Column) SetSelectivity(f float64) error {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return errors.New("selectivity must be between 0 and 1")
	}
	c.selectivity = f
	return nil
}

// Relationship links a primary key table to a foreign key table.
type Relationship struct {
	node
	pkTable     *Table
	fkTable     *Table
	updateRule  Rule
	deleteRule  Rule
	identifying bool
}

var _ types.Object = (*Relationship)(nil)

// NewRelationship returns a relationship from pk to fk.
func NewRelationship(pk, fk *Table) *Relationship {
	r := &Relationship{pkTable: pk, fkTable: fk}
	r.node = newNode(r, "")
	return r
}

// TypeName implements types.Object.
func (*Relationship) TypeName() string { return TypeRelationship }

// PKTable returns the table holding the referenced key.
func (r *Relationship) PKTable() *Table { return r.pkTable }

// FKTable returns the table holding the foreign key.
func (r *Relationship) FKTable() *Table { return r.fkTable }

// UpdateRule returns the action on update of the referenced key.
func (r *Relationship) UpdateRule() Rule { return r.updateRule }

// SetUpdateRule sets the update action.
func (r *Relationship) SetUpdateRule(rule Rule) { r.updateRule = rule }

// DeleteRule returns the action on delete of the referenced key.
func (r *Relationship) DeleteRule() Rule { return r.deleteRule }

// SetDeleteRule sets the delete action.
func (r *Relationship) SetDeleteRule(rule Rule) { r.deleteRule = rule }

// Identifying reports whether the foreign key is part of the FK table's
// primary key.
func (r *Relationship) Identifying() bool { return r.identifying }

// SetIdentifying sets whether the relationship is identifying.
func (r *Relationship) SetIdentifying(b bool) { r.identifying = b }
