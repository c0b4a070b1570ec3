package sqlobject

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/spsync/internal/persist"
	"github.com/mesh-intelligence/spsync/pkg/types"
)

// registry is built once and only read afterwards.
var registry = persist.MustRegistry(
	persist.MustHelper(databaseDescriptor),
	persist.MustHelper(catalogDescriptor),
	persist.MustHelper(schemaDescriptor),
	persist.MustHelper(tableDescriptor),
	persist.MustHelper(columnDescriptor),
	persist.MustHelper(relationshipDescriptor),
)

// Registry returns the helper registry for every type of the tree. It is
// immutable and safe to share between sessions.
func Registry() *persist.Registry { return registry }

var (
	fieldTypeText = persist.Text(func(s string) (any, error) { return ParseFieldType(s) })
	ruleText      = persist.Text(func(s string) (any, error) { return ParseRule(s) })
)

type named interface {
	types.Object
	Name() string
	SetName(string)
}

// nameProperty is the name property every tree type shares.
func nameProperty[T named]() persist.Property[T] {
	return persist.Property[T]{
		Name: "name",
		Type: persist.String,
		Get:  func(o T) any { return o.Name() },
		Set:  func(o T, v any) error { o.SetName(v.(string)); return nil },
	}
}

func requireString(args []any, i int) string {
	s, _ := args[i].(string)
	return s
}

var databaseDescriptor = persist.Descriptor[*Database]{
	TypeName: TypeDatabase,
	New:      func([]any) (*Database, error) { return NewDatabase(), nil },
	Properties: []persist.Property[*Database]{
		nameProperty[*Database](),
		{
			Name: "dataSource",
			Type: persist.String,
			Get:  func(d *Database) any { return d.DataSource() },
			Set:  func(d *Database, v any) error { d.SetDataSource(v.(string)); return nil },
		},
		{
			Name: "populated",
			Type: persist.Bool,
			Get:  func(d *Database) any { return d.Populated() },
			Set:  func(d *Database, v any) error { d.SetPopulated(v.(bool)); return nil },
		},
	},
	AcceptsChildren: true,
	ChildTypes:      []string{TypeCatalog, TypeSchema, TypeTable},
}

var catalogDescriptor = persist.Descriptor[*Catalog]{
	TypeName: TypeCatalog,
	Required: []string{"name"},
	New: func(args []any) (*Catalog, error) {
		return NewCatalog(requireString(args, 0)), nil
	},
	Properties: []persist.Property[*Catalog]{
		nameProperty[*Catalog](),
		{
			Name: "nativeTerm",
			Type: persist.String,
			Get:  func(c *Catalog) any { return c.NativeTerm() },
			Set:  func(c *Catalog, v any) error { c.SetNativeTerm(v.(string)); return nil },
		},
		{
			Name: "populated",
			Type: persist.Bool,
			Get:  func(c *Catalog) any { return c.Populated() },
			Set:  func(c *Catalog, v any) error { c.SetPopulated(v.(bool)); return nil },
		},
	},
	AcceptsChildren: true,
	ChildTypes:      []string{TypeSchema, TypeTable},
}

var schemaDescriptor = persist.Descriptor[*Schema]{
	TypeName: TypeSchema,
	Required: []string{"name"},
	New: func(args []any) (*Schema, error) {
		return NewSchema(requireString(args, 0)), nil
	},
	Properties: []persist.Property[*Schema]{
		nameProperty[*Schema](),
		{
			Name: "nativeTerm",
			Type: persist.String,
			Get:  func(s *Schema) any { return s.NativeTerm() },
			Set:  func(s *Schema, v any) error { s.SetNativeTerm(v.(string)); return nil },
		},
		{
			Name: "physicalName",
			Type: persist.String,
			Get:  func(s *Schema) any { return s.PhysicalName() },
			Set:  func(s *Schema, v any) error { s.SetPhysicalName(v.(string)); return nil },
		},
		{
			Name: "populated",
			Type: persist.Bool,
			Get:  func(s *Schema) any { return s.Populated() },
			Set:  func(s *Schema, v any) error { s.SetPopulated(v.(bool)); return nil },
		},
	},
	AcceptsChildren: true,
	ChildTypes:      []string{TypeTable, TypeRelationship},
}

var tableDescriptor = persist.Descriptor[*Table]{
	TypeName: TypeTable,
	Required: []string{"name"},
	New: func(args []any) (*Table, error) {
		return NewTable(requireString(args, 0)), nil
	},
	Properties: []persist.Property[*Table]{
		nameProperty[*Table](),
		{
			Name: "remarks",
			Type: persist.String,
			Get:  func(t *Table) any { return t.Remarks() },
			Set:  func(t *Table, v any) error { t.SetRemarks(v.(string)); return nil },
		},
		{
			Name: "objectType",
			Type: persist.String,
			Get:  func(t *Table) any { return t.ObjectType() },
			Set:  func(t *Table, v any) error { t.SetObjectType(v.(string)); return nil },
		},
		{
			Name: "physicalName",
			Type: persist.String,
			Get:  func(t *Table) any { return t.PhysicalName() },
			Set:  func(t *Table, v any) error { t.SetPhysicalName(v.(string)); return nil },
		},
		{
			Name: "rowCount",
			Type: persist.Int64,
			Get:  func(t *Table) any { return t.RowCount() },
			Set:  func(t *Table, v any) error { return t.SetRowCount(v.(int64)) },
		},
		{
			Name: "lastModified",
			Type: persist.Time,
			Get:  func(t *Table) any { return t.LastModified() },
			Set:  func(t *Table, v any) error { t.SetLastModified(v.(time.Time)); return nil },
		},
	},
	AcceptsChildren: true,
	ChildTypes:      []string{TypeColumn},
}

var columnDescriptor = persist.Descriptor[*Column]{
	TypeName: TypeColumn,
	Required: []string{"name", "fieldType"},
	New: func(args []any) (*Column, error) {
		ft, _ := args[1].(FieldType)
		if !ft.Valid() {
			return nil, fmt.Errorf("%w: field type %d", ErrUnknownEnum, int(ft))
		}
		return NewColumn(requireString(args, 0), ft), nil
	},
	Properties: []persist.Property[*Column]{
		nameProperty[*Column](),
		{
			Name: "fieldType",
			Type: fieldTypeText,
			Get:  func(c *Column) any { return c.FieldType() },
			Set:  func(c *Column, v any) error { return c.SetFieldType(v.(FieldType)) },
		},
		{
			Name: "precision",
			Type: persist.Int,
			Get:  func(c *Column) any { return c.Precision() },
			Set:  func(c *Column, v any) error { c.SetPrecision(v.(int)); return nil },
		},
		{
			Name: "scale",
			Type: persist.Int,
			Get:  func(c *Column) any { return c.Scale() },
			Set:  func(c *Column, v any) error { c.SetScale(v.(int)); return nil },
		},
		{
			Name: "nullable",
			Type: persist.Bool,
			Get:  func(c *Column) any { return c.Nullable() },
			Set:  func(c *Column, v any) error { c.SetNullable(v.(bool)); return nil },
		},
		{
			Name: "autoIncrement",
			Type: persist.Bool,
			Get:  func(c *Column) any { return c.AutoIncrement() },
			Set:  func(c *Column, v any) error { c.SetAutoIncrement(v.(bool)); return nil },
		},
		{
			Name: "defaultValue",
			Type: persist.String,
			Get:  func(c *Column) any { return c.DefaultValue() },
			Set:  func(c *Column, v any) error { c.SetDefaultValue(v.(string)); return nil },
		},
		{
			Name: "remarks",
			Type: persist.String,
			Get:  func(c *Column) any { return c.Remarks() },
			Set:  func(c *Column, v any) error { c.SetRemarks(v.(string)); return nil },
		},
		{
			Name: "selectivity",
			Type: persist.Float,
			Get:  func(c *Column) any { return c.Selectivity() },
			Set:  func(c *Column, v any) error { return c.SetSelectivity(v.(float64)) },
		},
	},
}

var relationshipDescriptor = persist.Descriptor[*Relationship]{
	TypeName: TypeRelationship,
	Required: []string{"pkTable", "fkTable"},
	New: func(args []any) (*Relationship, error) {
		pk, ok := args[0].(*Table)
		if !ok {
			return nil, fmt.Errorf("pkTable: want a Table, got %T", args[0])
		}
		fk, ok := args[1].(*Table)
		if !ok {
			return nil, fmt.Errorf("fkTable: want a Table, got %T", args[1])
		}
		return NewRelationship(pk, fk), nil
	},
	Properties: []persist.Property[*Relationship]{
		{
			Name: "pkTable",
			Type: persist.Reference,
			Get:  func(r *Relationship) any { return r.PKTable() },
		},
		{
			Name: "fkTable",
			Type: persist.Reference,
			Get:  func(r *Relationship) any { return r.FKTable() },
		},
		nameProperty[*Relationship](),
		{
			Name: "updateRule",
			Type: ruleText,
			Get:  func(r *Relationship) any { return r.UpdateRule() },
			Set:  func(r *Relationship, v any) error { r.SetUpdateRule(v.(Rule)); return nil },
		},
		{
			Name: "deleteRule",
			Type: ruleText,
			Get:  func(r *Relationship) any { return r.DeleteRule() },
			Set:  func(r *Relationship, v any) error { r.SetDeleteRule(v.(Rule)); return nil },
		},
		{
			Name: "identifying",
			Type: persist.Bool,
			Get:  func(r *Relationship) any { return r.Identifying() },
			Set:  func(r *Relationship, v any) error { r.SetIdentifying(v.(bool)); return nil },
		},
	},
}
