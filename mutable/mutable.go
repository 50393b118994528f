// Package mutable moves changes from control goroutines into the render
// goroutine.
//
// A component embeds a Context and wraps every change of its state into a
// Mutation. Mutations are applied by the goroutine that owns the component,
// between two render passes, so the component itself needs no locks.
package mutable

import (
	"github.com/rs/xid"
)

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context can be embedded to make structure behaviour mutable.
	Context xid.ID

	// Mutation is mutator function associated with a certain mutable context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a set of Mutations mapped their Mutables.
	Mutations map[Context][]MutatorFunc

	// MutatorFunc mutates the object.
	MutatorFunc func()
)

// Mutable returns new mutable context.
func Mutable() Context {
	return Context(xid.New())
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with mutable and return mutation.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// IsMutable returns true if object is mutable.
func (c Context) IsMutable() bool {
	return c != immutable
}

// Mutability returns the context itself. Components that embed a context
// expose it with this method.
func (c Context) Mutability() Context {
	return c
}

func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply mutator function.
func (m Mutation) Apply() {
	m.mutator()
}

// Put mutation to the set of Mutations.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.Context == immutable {
		return ms
	}
	if ms == nil {
		return map[Context][]MutatorFunc{m.Context: {m.mutator}}
	}
	ms[m.Context] = append(ms[m.Context], m.mutator)
	return ms
}

// ApplyTo consumes Mutations defined for consumer in this param set.
// Mutators are applied in the order they were put.
func (ms Mutations) ApplyTo(id Context) {
	if ms == nil || id == immutable {
		return
	}
	if fns, ok := ms[id]; ok {
		for _, fn := range fns {
			fn()
		}
		delete(ms, id)
	}
}

// Discard removes all mutations and returns the number of dropped
// mutators.
func (ms Mutations) Discard() int {
	n := 0
	for id, fns := range ms {
		n += len(fns)
		delete(ms, id)
	}
	return n
}
