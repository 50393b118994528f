package mutable

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned when mutations are pushed faster than they are
// drained.
var ErrQueueFull = errors.New("mutation queue is full")

// Queue is a bounded FIFO of mutations. Neither Push nor Drain blocks.
// Push can be called from any goroutine, Drain only from the one that
// owns the mutated components.
type Queue struct {
	c chan Mutation
}

// NewQueue returns a queue that holds up to size mutations.
func NewQueue(size int) *Queue {
	return &Queue{
		c: make(chan Mutation, size),
	}
}

// Push adds mutations to the queue. If the queue is full, the rest of
// mutations is dropped and ErrQueueFull is returned.
func (q *Queue) Push(mutations ...Mutation) error {
	for i, m := range mutations {
		select {
		case q.c <- m:
		default:
			return fmt.Errorf("%w: dropped %d of %d mutations", ErrQueueFull, len(mutations)-i, len(mutations))
		}
	}
	return nil
}

// Drain puts all pending mutations into the set.
func (q *Queue) Drain(ms Mutations) Mutations {
	for {
		select {
		case m := <-q.c:
			ms = ms.Put(m)
		default:
			return ms
		}
	}
}

// Len returns the number of pending mutations.
func (q *Queue) Len() int {
	return len(q.c)
}
