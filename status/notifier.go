package status

import (
	"fmt"
	"sync/atomic"
)

// Kind is the type of notification.
type Kind int

const (
	// MarkerChanged is posted when the active marker section changes.
	MarkerChanged Kind = iota
	// ClipStarted is posted by processors when a clip starts playing.
	ClipStarted
	// ClipStopped is posted by processors when a clip stops playing.
	ClipStopped
	// TransportChanged is posted on every transport state transition.
	TransportChanged
	// Failure is posted once when the engine halts.
	Failure
)

func (k Kind) String() string {
	switch k {
	case MarkerChanged:
		return "marker"
	case ClipStarted:
		return "clip started"
	case ClipStopped:
		return "clip stopped"
	case TransportChanged:
		return "transport"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Notification is an event delivered to the control goroutine.
type Notification struct {
	Kind Kind
	// ID is the marker or clip id. For markers -1 means no active marker.
	ID       int
	Repeat   int
	Position float64
	// State is the transport state name for TransportChanged.
	State string
	Err   error
}

func (n Notification) String() string {
	switch n.Kind {
	case MarkerChanged:
		if n.ID < 0 {
			return "marker: none"
		}
		return fmt.Sprintf("marker: %d repeat %d", n.ID, n.Repeat)
	case TransportChanged:
		return fmt.Sprintf("transport: %s at %.3f", n.State, n.Position)
	case Failure:
		return fmt.Sprintf("failure: %v", n.Err)
	}
	return fmt.Sprintf("%v: %d at %.3f", n.Kind, n.ID, n.Position)
}

// Notifier collects notifications during a render pass and delivers them
// to a buffered channel when the pass is over. Post and Flush are called
// by the render goroutine and never block. Notifications that don't fit
// are dropped and counted.
type Notifier struct {
	pending []Notification
	c       chan Notification
	dropped atomic.Uint64
}

// NewNotifier returns a notifier that keeps up to size notifications
// pending and up to size undelivered in the channel.
func NewNotifier(size int) *Notifier {
	return &Notifier{
		pending: make([]Notification, 0, size),
		c:       make(chan Notification, size),
	}
}

// Post queues the notification until the next Flush.
func (n *Notifier) Post(x Notification) {
	if len(n.pending) == cap(n.pending) {
		n.dropped.Add(1)
		return
	}
	n.pending = append(n.pending, x)
}

// Flush delivers pending notifications.
func (n *Notifier) Flush() {
	for i := range n.pending {
		select {
		case n.c <- n.pending[i]:
		default:
			n.dropped.Add(uint64(len(n.pending) - i))
			n.pending = n.pending[:0]
			return
		}
	}
	n.pending = n.pending[:0]
}

// C returns the channel notifications are delivered to.
func (n *Notifier) C() <-chan Notification {
	return n.c
}

// Dropped returns the number of dropped notifications.
func (n *Notifier) Dropped() uint64 {
	return n.dropped.Load()
}
