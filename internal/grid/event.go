package grid

// EventKind identifies what happened to a grid.
type EventKind int

const (
	ItemCreated EventKind = iota + 1
	ItemDeleted
	ItemEdited
	OrderChanged
	SelectAll
	UnselectAll
	SelectItem
	UnselectItem
	BuildComplete

	// BeforeDelete fires before a batch delete starts. It is the only
	// cancelable event: canceling it aborts the whole batch.
	BeforeDelete
)

var eventNames = map[EventKind]string{
	ItemCreated:   "item-created",
	ItemDeleted:   "item-deleted",
	ItemEdited:    "item-edited",
	OrderChanged:  "order-changed",
	SelectAll:     "select-all",
	UnselectAll:   "unselect-all",
	SelectItem:    "select-item",
	UnselectItem:  "unselect-item",
	BuildComplete: "build-complete",
	BeforeDelete:  "before-delete",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is delivered to subscribers after the change it describes has
// been committed (BeforeDelete excepted).
type Event[R any] struct {
	Kind       EventKind
	Items      []R
	Cancelable bool

	canceled bool
	stopped  bool
}

// Cancel vetoes a cancelable event. It has no effect otherwise.
func (e *Event[R]) Cancel() {
	if e.Cancelable {
		e.canceled = true
	}
}

// Canceled reports whether a listener canceled the event.
func (e *Event[R]) Canceled() bool { return e.canceled }

// StopPropagation keeps the remaining listeners from seeing the event.
func (e *Event[R]) StopPropagation() { e.stopped = true }

// Listener receives events.
type Listener[R any] func(e *Event[R])

type subscription[R any] struct {
	id int
	fn Listener[R]
}

// bus is a typed publish/subscribe hub keyed by event kind.
type bus[R any] struct {
	next int
	subs map[EventKind][]subscription[R]
}

func (b *bus[R]) subscribe(kind EventKind, fn Listener[R]) func() {
	if b.subs == nil {
		b.subs = make(map[EventKind][]subscription[R])
	}
	b.next++
	id := b.next
	b.subs[kind] = append(b.subs[kind], subscription[R]{id: id, fn: fn})

	return func() {
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// publish delivers e to the listeners of its kind in subscription order.
// It reports false when a listener canceled the event.
func (b *bus[R]) publish(e *Event[R]) bool {
	list := b.subs[e.Kind]
	if len(list) == 0 {
		return true
	}
	snapshot := make([]subscription[R], len(list))
	copy(snapshot, list)

	for _, s := range snapshot {
		s.fn(e)
		if e.stopped {
			break
		}
	}
	return !e.canceled
}
