package tagindex

import "sync"

// EventKind identifies the mutation that produced an event.
type EventKind string

const (
	// EventUpdate is emitted when a file's tag set is upserted. A bulk
	// replace emits a single update event with an empty Path.
	EventUpdate EventKind = "update"
	// EventRemove is emitted when a file is removed from the index.
	EventRemove EventKind = "remove"
	// EventRename is emitted when a file is moved; OldPath carries the
	// previous path.
	EventRename EventKind = "rename"
	// EventReset is emitted when the index is cleared.
	EventReset EventKind = "reset"
)

// Event describes a single index mutation.
type Event struct {
	Kind EventKind
	// Path is the affected file path. Empty for reset and bulk replace.
	Path string
	// OldPath is the previous path for rename events, empty otherwise.
	OldPath string
}

// Notifier is a synchronous in-process publish/subscribe channel for index
// mutations. Delivery order equals mutation order; there is no batching and
// no reordering. Subscribers run on the mutating goroutine and must be
// idempotent under at-least-once delivery.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for all future events and returns an unsubscribe
// function. Safe to call multiple times with the same function.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.order = append(n.order, id)

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Publish delivers e to all subscribers, in subscription order.
func (n *Notifier) Publish(e Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.subs))
	for _, id := range n.order {
		if fn, ok := n.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
