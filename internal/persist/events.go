package persist

// EventKind classifies a commit notification.
type EventKind int

const (
	// ObjectCommitted fires once an object is constructed, its children are
	// attached and its staged properties are applied.
	ObjectCommitted EventKind = iota + 1
	// PropertyApplied fires after a property value reaches its setter.
	PropertyApplied
	// PropertySkipped fires when a staged property names no mutable
	// property of the owner's type.
	PropertySkipped
)

func (k EventKind) String() string {
	switch k {
	case ObjectCommitted:
		return "object_committed"
	case PropertyApplied:
		return "property_applied"
	case PropertySkipped:
		return "property_skipped"
	default:
		return "unknown"
	}
}

// Event describes one commit notification. Property is empty for
// ObjectCommitted.
type Event struct {
	Kind     EventKind
	ID       string
	TypeName string
	Property string
}

// Listener receives commit notifications synchronously, in commit order.
type Listener func(Event)

// Queue is a Listener target that collects events in order.
type Queue struct {
	Events []Event
}

// Listen appends ev to the queue.
func (q *Queue) Listen(ev Event) { q.Events = append(q.Events, ev) }
