package timeline

import (
	"math"
	"sort"
)

// Callbacks is a set of functions invoked when the playhead reaches their
// position.
type Callbacks struct {
	entries []*callbackEntry
	firing  bool
	removed bool
}

type callbackEntry struct {
	position float64
	fn       func()
	removed  bool
	// added while firing, skipped until the next Fire.
	fresh bool
}

// NewCallbacks returns an empty set of callbacks.
func NewCallbacks() *Callbacks {
	return &Callbacks{}
}

// Set registers fn at position. The returned function removes it; it's
// safe to call it from inside fn and more than once.
func (c *Callbacks) Set(position float64, fn func()) (cancel func()) {
	e := &callbackEntry{position: position, fn: fn, fresh: c.firing}
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].position > position
	})
	c.entries = append(c.entries, nil)
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = e
	return func() {
		if e.removed {
			return
		}
		e.removed = true
		c.removed = true
		if !c.firing {
			c.compact()
		}
	}
}

// Len returns the number of registered callbacks.
func (c *Callbacks) Len() int {
	n := 0
	for _, e := range c.entries {
		if !e.removed {
			n++
		}
	}
	return n
}

// Next returns the position of the first callback after the given
// position and before the limit. If inclusive is set, callbacks at exactly
// after are also considered.
func (c *Callbacks) Next(after float64, inclusive bool, before float64) (float64, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		if inclusive {
			return c.entries[i].position >= after
		}
		return c.entries[i].position > after
	})
	for ; i < len(c.entries); i++ {
		e := c.entries[i]
		if e.position >= before {
			break
		}
		if !e.removed {
			return e.position, true
		}
	}
	return math.Inf(1), false
}

// Fire invokes all callbacks registered at exactly position, in
// registration order.
func (c *Callbacks) Fire(position float64) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].position >= position
	})
	c.firing = true
	for ; i < len(c.entries) && c.entries[i].position == position; i++ {
		e := c.entries[i]
		if e.removed || e.fresh {
			continue
		}
		n := len(c.entries)
		e.fn()
		if len(c.entries) != n {
			// fn registered new callbacks and shifted the entries
			i = c.indexOf(e)
		}
	}
	c.firing = false
	for _, e := range c.entries {
		e.fresh = false
	}
	if c.removed {
		c.compact()
	}
}

func (c *Callbacks) compact() {
	n := 0
	for _, e := range c.entries {
		if !e.removed {
			c.entries[n] = e
			n++
		}
	}
	for i := n; i < len(c.entries); i++ {
		c.entries[i] = nil
	}
	c.entries = c.entries[:n]
	c.removed = false
}

func (c *Callbacks) indexOf(e *callbackEntry) int {
	for i := range c.entries {
		if c.entries[i] == e {
			return i
		}
	}
	return len(c.entries)
}
