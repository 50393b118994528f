package mutable_test

import (
	"fmt"

	"github.com/pipelined/engine/mutable"
)

type gain struct {
	mutable.Context
	value float64
}

func (g *gain) setValue(value float64) mutable.Mutation {
	return g.Context.Mutate(func() {
		g.value = value
	})
}

func Example_mutation() {
	// create new mutable component
	component := &gain{
		Context: mutable.Mutable(),
		value:   1,
	}
	queue := mutable.NewQueue(4)
	fmt.Println(component.value)

	// control goroutine pushes the change
	_ = queue.Push(component.setValue(0.5))
	fmt.Println(component.value)

	// owner goroutine applies it between render passes
	queue.Drain(nil).ApplyTo(component.Context)
	fmt.Println(component.value)

	// Output:
	// 1
	// 1
	// 0.5
}
