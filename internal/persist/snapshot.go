package persist

import (
	"github.com/mesh-intelligence/spsync/pkg/types"
)

// Node is a plain snapshot of an object and its descendants, holding basic
// property values. Nil values are left out.
type Node struct {
	Type       string         `json:"type" toml:"type"`
	ID         string         `json:"id" toml:"id"`
	Properties map[string]any `json:"properties,omitempty" toml:"properties,omitempty"`
	Children   []Node         `json:"children,omitempty" toml:"children,omitempty"`
}

// Snapshot reads every persistable property of obj and its descendants
// through the Factory.
func (f *Factory) Snapshot(obj types.Object) (Node, error) {
	h, err := f.GetHelper(obj.TypeName())
	if err != nil {
		return Node{}, err
	}
	n := Node{Type: obj.TypeName(), ID: obj.UUID()}
	for _, name := range h.PropertyNames() {
		v, err := h.FindProperty(obj, name, f.converter)
		if err != nil {
			return Node{}, err
		}
		if v == nil {
			continue
		}
		if n.Properties == nil {
			n.Properties = make(map[string]any)
		}
		n.Properties[name] = v
	}
	for _, child := range obj.Children() {
		cn, err := f.Snapshot(child)
		if err != nil {
			return Node{}, err
		}
		n.Children = append(n.Children, cn)
	}
	return n, nil
}
