package mock_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/mock"
)

func TestSourceAndBus(t *testing.T) {
	trace := &mock.Trace{}
	a := mock.NewSource("a", 2, 8, 0.25)
	b := mock.NewSource("b", 2, 8, 0.5)
	a.Trace, b.Trace = trace, trace
	bus := mock.NewBus("bus", 2, 8, a, b)
	bus.Trace = trace

	blocks := []block.Block{
		{Index: 0, S0: 0, S1: 3, Flags: block.Transporting | block.Playing},
		{Index: 1, S0: 3, S1: 8},
	}
	for _, blk := range blocks {
		for _, p := range []interface{ Process(block.Block) error }{a, b, bus} {
			assert.NoError(t, p.Process(blk))
		}
	}
	assert.Equal(t, []float64{0.75, 0.75, 0.75, 0, 0, 0, 0, 0}, bus.Output()[1])
	assert.Equal(t, []string{"a#0", "b#0", "bus#0", "a#1", "b#1", "bus#1"}, trace.Calls())

	blockCount, samples := a.Count()
	assert.Equal(t, 2, blockCount)
	assert.Equal(t, 8, samples)

	a.ValueParam(1).Apply()
	assert.Equal(t, 1.0, a.Value)
	a.Reset()
	blockCount, _ = a.Count()
	assert.Equal(t, 0, blockCount)
	assert.Equal(t, 1, a.Resets)
}

func TestProcessor(t *testing.T) {
	p := &mock.Processor{Name: "p", Record: true}
	b := block.Block{S0: 10, S1: 20}
	assert.NoError(t, p.Process(b))
	assert.Equal(t, []block.Block{b}, p.Blocks)

	p.ErrorOnCall = errors.New("fail")
	assert.Error(t, p.Process(b))

	p.PanicOnCall = true
	assert.PanicsWithValue(t, "p panic", func() { _ = p.Process(b) })

	p.ErrorOnClose = errors.New("close")
	assert.Error(t, p.Close())
	assert.True(t, p.Closed)
	assert.Equal(t, "p", p.String())
}
