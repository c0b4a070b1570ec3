package persist

import (
	"errors"
	"time"

	"github.com/mesh-intelligence/spsync/pkg/types"
)

// box and item are a minimal object tree for exercising the core. A box
// holds boxes and items; an item needs a label to be constructed.
type box struct {
	id     string
	name   string
	opened time.Time
	parent types.Object
	kids   []types.Object
}

func (b *box) UUID() string             { return b.id }
func (b *box) SetUUID(id string)        { b.id = id }
func (b *box) TypeName() string         { return "box" }
func (b *box) Parent() types.Object     { return b.parent }
func (b *box) Children() []types.Object { return b.kids }

// AddChild appends; the core already attaches children in order.
func (b *box) AddChild(child types.Object, _ int) error {
	switch c := child.(type) {
	case *box:
		c.parent = b
	case *item:
		c.parent = b
	default:
		return types.ErrInvalidChild
	}
	b.kids = append(b.kids, child)
	return nil
}

type item struct {
	id     string
	label  string
	weight int
	ratio  float64
	link   types.Object
	secret string
	parent types.Object
}

func (i *item) UUID() string                     { return i.id }
func (i *item) SetUUID(id string)                { i.id = id }
func (i *item) TypeName() string                 { return "item" }
func (i *item) Parent() types.Object             { return i.parent }
func (i *item) Children() []types.Object         { return nil }
func (i *item) AddChild(types.Object, int) error { return types.ErrInvalidChild }

var errTooHeavy = errors.New("too heavy")

var boxDescriptor = Descriptor[*box]{
	TypeName: "box",
	New:      func([]any) (*box, error) { return &box{}, nil },
	Properties: []Property[*box]{
		{
			Name: "name",
			Type: String,
			Get:  func(b *box) any { return b.name },
			Set:  func(b *box, v any) error { b.name = v.(string); return nil },
		},
		{
			Name: "opened",
			Type: Time,
			Get:  func(b *box) any { return b.opened },
			Set:  func(b *box, v any) error { b.opened = v.(time.Time); return nil },
		},
	},
	AcceptsChildren: true,
	ChildTypes:      []string{"box", "item"},
}

var itemDescriptor = Descriptor[*item]{
	TypeName: "item",
	Required: []string{"label"},
	New: func(args []any) (*item, error) {
		label := args[0].(string)
		if label == "" {
			return nil, errors.New("empty label")
		}
		return &item{label: label}, nil
	},
	Properties: []Property[*item]{
		{
			Name: "weight",
			Type: Int,
			Get:  func(i *item) any { return i.weight },
			Set: func(i *item, v any) error {
				if v.(int) > 100 {
					return errTooHeavy
				}
				i.weight = v.(int)
				return nil
			},
		},
		{
			Name: "label",
			Type: String,
			Get:  func(i *item) any { return i.label },
		},
		{
			Name: "secret",
			Type: String,
			Set:  func(i *item, v any) error { i.secret = v.(string); return nil },
		},
		{
			Name: "ratio",
			Type: Float,
			Get:  func(i *item) any { return i.ratio },
			Set:  func(i *item, v any) error { i.ratio = v.(float64); return nil },
		},
		{
			Name: "link",
			Type: Reference,
			Get:  func(i *item) any { return i.link },
			Set:  func(i *item, v any) error { i.link, _ = v.(types.Object); return nil },
		},
	},
}

func testRegistry() *Registry {
	return MustRegistry(MustHelper(boxDescriptor), MustHelper(itemDescriptor))
}

func prop(owner, name string, v any, vt types.ValueType) types.PropertyRecord {
	return types.PropertyRecord{OwnerID: owner, Name: name, Value: v, ValueType: vt}
}

// recorder is a Sink that keeps what it receives and can be told to fail.
type recorder struct {
	objects    []types.ObjectRecord
	properties []types.PropertyRecord
	failAfter  int
	calls      int
}

var errSinkDown = errors.New("sink down")

func (r *recorder) fail() error {
	r.calls++
	if r.failAfter > 0 && r.calls > r.failAfter {
		return errSinkDown
	}
	return nil
}

func (r *recorder) EmitObject(rec types.ObjectRecord) error {
	if err := r.fail(); err != nil {
		return err
	}
	r.objects = append(r.objects, rec)
	return nil
}

func (r *recorder) EmitProperty(rec types.PropertyRecord) error {
	if err := r.fail(); err != nil {
		return err
	}
	r.properties = append(r.properties, rec)
	return nil
}
