// Package mock provides mocks for engine processors and allows to execute
// integration tests.
package mock

import (
	"fmt"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/signal"
)

// Processor mocks a graph.Processor interface. It implements optional
// before, after and close hooks as well.
type Processor struct {
	counter
	Hooks
	Name        string
	ErrorOnCall error
	PanicOnCall bool
	// Record keeps all processed blocks.
	Record bool
	Blocks []block.Block
	// Trace records processing order across processors.
	Trace *Trace
}

// Process implements graph.Processor.
func (m *Processor) Process(b block.Block) error {
	if m.PanicOnCall {
		panic(fmt.Sprintf("%s panic", m.Name))
	}
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if m.Record {
		m.Blocks = append(m.Blocks, b)
	}
	m.Trace.add(m.Name, b)
	m.advance(b.Length())
	return nil
}

// Reset implements graph.Processor.
func (m *Processor) Reset() {
	m.Resets++
	m.reset()
}

func (m *Processor) String() string {
	return m.Name
}

// Source mocks a graph.AudioUnit. It outputs constant value while the
// transport plays and silence otherwise.
type Source struct {
	mutable.Context
	counter
	Hooks
	Name  string
	Value float64
	Trace *Trace

	output signal.Float64
}

// NewSource returns a source with allocated output.
func NewSource(name string, numChannels, quantum int, value float64) *Source {
	return &Source{
		Context: mutable.Mutable(),
		Name:    name,
		Value:   value,
		output:  signal.EmptyFloat64(numChannels, quantum),
	}
}

// ValueParam pushes new signal value for source.
func (m *Source) ValueParam(v float64) mutable.Mutation {
	return m.Mutate(func() {
		m.Value = v
	})
}

// Process implements graph.Processor.
func (m *Source) Process(b block.Block) error {
	v := 0.0
	if b.Flags.Has(block.Playing) {
		v = m.Value
	}
	for i := range m.output {
		s := m.output[i][b.S0:b.S1]
		for j := range s {
			s[j] = v
		}
	}
	m.Trace.add(m.Name, b)
	m.advance(b.Length())
	return nil
}

// Reset implements graph.Processor.
func (m *Source) Reset() {
	m.Resets++
	m.reset()
}

// Output implements graph.AudioUnit.
func (m *Source) Output() signal.Float64 {
	return m.output
}

func (m *Source) String() string {
	return m.Name
}

// Bus mocks a graph.AudioUnit that sums outputs of its inputs. Inputs
// must be processed before the bus.
type Bus struct {
	counter
	Name   string
	Inputs []graph.AudioUnit
	Trace  *Trace

	output signal.Float64
}

// NewBus returns a bus with allocated output.
func NewBus(name string, numChannels, quantum int, inputs ...graph.AudioUnit) *Bus {
	return &Bus{
		Name:   name,
		Inputs: inputs,
		output: signal.EmptyFloat64(numChannels, quantum),
	}
}

// Process implements graph.Processor.
func (m *Bus) Process(b block.Block) error {
	for i := range m.output {
		s := m.output[i][b.S0:b.S1]
		for j := range s {
			s[j] = 0
		}
		for _, in := range m.Inputs {
			if src := in.Output(); i < len(src) {
				for j, v := range src[i][b.S0:b.S1] {
					s[j] += v
				}
			}
		}
	}
	m.Trace.add(m.Name, b)
	m.advance(b.Length())
	return nil
}

// Reset implements graph.Processor.
func (m *Bus) Reset() {
	m.reset()
}

// Output implements graph.AudioUnit.
func (m *Bus) Output() signal.Float64 {
	return m.output
}

func (m *Bus) String() string {
	return m.Name
}

// Hooks allows to mock processor hooks.
type Hooks struct {
	Resets  int
	Befores int
	Afters  int
	Closed  bool

	// OnBefore is called during the before phase, it's the place to rewire
	// the graph.
	OnBefore func(*graph.Graph)

	ErrorOnBefore error
	ErrorOnAfter  error
	ErrorOnClose  error
}

// Before implements engine.BeforeProcessor.
func (h *Hooks) Before(g *graph.Graph) error {
	h.Befores++
	if h.OnBefore != nil {
		h.OnBefore(g)
	}
	return h.ErrorOnBefore
}

// After implements engine.AfterProcessor.
func (h *Hooks) After() error {
	h.Afters++
	return h.ErrorOnAfter
}

// Close implements io.Closer.
func (h *Hooks) Close() error {
	h.Closed = true
	return h.ErrorOnClose
}

// Trace records processing calls of many processors.
type Trace struct {
	calls []string
}

func (t *Trace) add(name string, b block.Block) {
	if t == nil {
		return
	}
	t.calls = append(t.calls, fmt.Sprintf("%s#%d", name, b.Index))
}

// Calls returns recorded calls as name#blockIndex.
func (t *Trace) Calls() []string {
	return t.calls
}

// counter counts blocks and samples.
type counter struct {
	blocks  int
	samples int
}

// reset resets counter's metrics.
func (c *counter) reset() {
	c.blocks, c.samples = 0, 0
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.blocks++
	c.samples += size
}

// Count returns blocks and samples metrics.
func (c *counter) Count() (int, int) {
	return c.blocks, c.samples
}
