package sqlobject

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Type names of the tree.
const (
	TypeDatabase     = "Database"
	TypeCatalog      = "Catalog"
	TypeSchema       = "Schema"
	TypeTable        = "Table"
	TypeColumn       = "Column"
	TypeRelationship = "Relationship"
)

// NewID returns a fresh object id. It prefers a time-ordered UUIDv7 and
// falls back to a random UUIDv4.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// node carries the identity, naming and containment every tree type
// shares. self is the concrete object that embeds the node; children see
// it as their parent.
type node struct {
	self       types.Object
	id         string
	name       string
	parent     types.Object
	childTypes []string
	kids       map[string][]types.Object
}

func newNode(self types.Object, name string, childTypes ...string) node {
	return node{
		self:       self,
		id:         NewID(),
		name:       name,
		childTypes: childTypes,
	}
}

// UUID implements types.Object.
func (n *node) UUID() string { return n.id }

// SetUUID implements types.Object.
func (n *node) SetUUID(id string) { n.id = id }

// Name returns the object's logical name.
func (n *node) Name() string { return n.name }

// SetName renames the object.
func (n *node) SetName(name string) { n.name = name }

// Parent implements types.Object.
func (n *node) Parent() types.Object { return n.parent }

func (n *node) setParent(p types.Object) { n.parent = p }

// Children implements types.Object. Children are grouped by type in the
// order the type accepts them, and ordered by index within a type.
func (n *node) Children() []types.Object {
	var out []types.Object
	for _, t := range n.childTypes {
		out = append(out, n.kids[t]...)
	}
	return out
}

// ChildrenOf returns the children of one type.
func (n *node) ChildrenOf(typeName string) []types.Object {
	return n.kids[typeName]
}

// AllowsChildType reports whether children of typeName may be attached.
func (n *node) AllowsChildType(typeName string) bool {
	return slices.Contains(n.childTypes, typeName)
}

// AddChild implements types.Object. index is clamped to the children of
// the same type already present.
func (n *node) AddChild(child types.Object, index int) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", types.ErrInvalidChild)
	}
	if !n.AllowsChildType(child.TypeName()) {
		return fmt.Errorf("%w: %s does not accept %s", types.ErrInvalidChild, n.self.TypeName(), child.TypeName())
	}
	c, ok := child.(interface{ setParent(types.Object) })
	if !ok {
		return fmt.Errorf("%w: %T is not a tree node", types.ErrInvalidChild, child)
	}
	if p := child.Parent(); p != nil && p != n.self {
		return fmt.Errorf("%w: %s %s already belongs to %s", types.ErrInvalidChild, child.TypeName(), child.UUID(), p.UUID())
	}

	if n.kids == nil {
		n.kids = make(map[string][]types.Object)
	}
	siblings := n.kids[child.TypeName()]
	index = max(0, min(index, len(siblings)))
	n.kids[child.TypeName()] = slices.Insert(siblings, index, child)
	c.setParent(n.self)
	return nil
}

// RemoveChild detaches child. It reports whether child was attached here.
func (n *node) RemoveChild(child types.Object) bool {
	siblings := n.kids[child.TypeName()]
	i := slices.Index(siblings, child)
	if i < 0 {
		return false
	}
	n.kids[child.TypeName()] = slices.Delete(siblings, i, i+1)
	if c, ok := child.(interface{ setParent(types.Object) }); ok {
		c.setParent(nil)
	}
	return true
}
