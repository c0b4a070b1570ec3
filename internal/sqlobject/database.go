package sqlobject

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// lowerTerm lower-cases a native term. A Caser is stateful and must not be
// shared between sessions, so each call builds its own.
func lowerTerm(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Database is the root of a tree. It holds catalogs, schemas or tables
// directly, depending on what the platform supports.
type Database struct {
	node
	dataSource string
	populated  bool
}

var _ types.Object = (*Database)(nil)

// NewDatabase returns an empty, unnamed database.
func NewDatabase() *Database {
	d := &Database{}
	d.node = newNode(d, "", TypeCatalog, TypeSchema, TypeTable)
	return d
}

// TypeName implements types.Object.
func (*Database) TypeName() string { return TypeDatabase }

// DataSource returns the name of the connection the database was read
// from.
func (d *Database) DataSource() string { return d.dataSource }

// SetDataSource sets the connection name.
func (d *Database) SetDataSource(s string) { d.dataSource = s }

// Tables returns the tables held directly by the database.
func (d *Database) Tables() []*Table { return tablesOf(&d.node) }

// Populated reports whether the children were read from the database.
func (d *Database) Populated() bool { return d.populated }

// SetPopulated marks the children as read.
func (d *Database) SetPopulated(p bool) { d.populated = p }

// Catalog is a named collection of schemas or tables.
type Catalog struct {
	node
	nativeTerm string
	populated  bool
}

var _ types.Object = (*Catalog)(nil)

// NewCatalog returns an empty catalog called name.
func NewCatalog(name string) *Catalog {
	c := &Catalog{nativeTerm: "catalog"}
	c.node = newNode(c, name, TypeSchema, TypeTable)
	return c
}

// TypeName implements types.Object.
func (*Catalog) TypeName() string { return TypeCatalog }

// NativeTerm returns the platform's word for a catalog, lower-cased.
func (c *Catalog) NativeTerm() string { return c.nativeTerm }

// SetNativeTerm stores term lower-cased.
func (c *Catalog) SetNativeTerm(term string) { c.nativeTerm = lowerTerm(term) }

// Populated reports whether the children were read from the database.
func (c *Catalog) Populated() bool { return c.populated }

// SetPopulated marks the children as read.
func (c *Catalog) SetPopulated(p bool) { c.populated = p }

// Schema is a named collection of tables and the relationships between
// them. A schema lives directly under a Database or a Catalog.
type Schema struct {
	node
	nativeTerm   string
	physicalName string
	populated    bool
}

var _ types.Object = (*Schema)(nil)

// NewSchema returns an empty schema called name.
func NewSchema(name string) *Schema {
	s := &Schema{nativeTerm: "schema"}
	s.node = newNode(s, name, TypeTable, TypeRelationship)
	return s
}

// TypeName implements types.Object.
func (*Schema) TypeName() string { return TypeSchema }

// NativeTerm returns the platform's word for a schema, lower-cased.
func (s *Schema) NativeTerm() string { return s.nativeTerm }

// SetNativeTerm stores term lower-cased.
func (s *Schema) SetNativeTerm(term string) { s.nativeTerm = lowerTerm(term) }

// PhysicalName returns the name the schema has in the database, when it
// differs from Name.
func (s *Schema) PhysicalName() string { return s.physicalName }

// SetPhysicalName sets the physical name.
func (s *Schema) SetPhysicalName(name string) { s.physicalName = name }

// Populated reports whether the children were read from the database.
func (s *Schema) Populated() bool { return s.populated }

// SetPopulated marks the children as read.
func (s *Schema) SetPopulated(p bool) { s.populated = p }

// Tables returns the schema's tables in order.
func (s *Schema) Tables() []*Table { return tablesOf(&s.node) }

// Relationships returns the schema's relationships in order.
func (s *Schema) Relationships() []*Relationship {
	kids := s.ChildrenOf(TypeRelationship)
	out := make([]*Relationship, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.(*Relationship))
	}
	return out
}

func tablesOf(n *node) []*Table {
	kids := n.ChildrenOf(TypeTable)
	out := make([]*Table, 0, len(kids))
	for _, k := range kids {
		out = append(out, k.(*Table))
	}
	return out
}
