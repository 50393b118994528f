// Package mixer provides an audio unit that sums outputs of other units.
package mixer

import (
	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/signal"
)

// Mixer sums up outputs of its inputs and applies the gain. Input
// channels that exceed the number of mixer channels are dropped, mono
// inputs are copied into every channel.
type Mixer struct {
	mutable.Context
	name   string
	gain   float64
	inputs []graph.AudioUnit
	output signal.Float64
}

// New returns new mixer with unit gain.
func New(name string, numChannels, quantum int, inputs ...graph.AudioUnit) *Mixer {
	return &Mixer{
		Context: mutable.Mutable(),
		name:    name,
		gain:    1,
		inputs:  inputs,
		output:  signal.EmptyFloat64(numChannels, quantum),
	}
}

// GainParam returns the mutation that changes the gain.
func (m *Mixer) GainParam(gain float64) mutable.Mutation {
	return m.Mutate(func() {
		m.gain = gain
	})
}

// AddInput returns the mutation that adds the input. The input is
// connected to the mixer during the next before phase.
func (m *Mixer) AddInput(in graph.AudioUnit) mutable.Mutation {
	return m.Mutate(func() {
		m.inputs = append(m.inputs, in)
	})
}

// RemoveInput returns the mutation that removes the input and its
// connection.
func (m *Mixer) RemoveInput(g *graph.Graph, in graph.AudioUnit) mutable.Mutation {
	return m.Mutate(func() {
		for i := range m.inputs {
			if m.inputs[i] == in {
				m.inputs = append(m.inputs[:i], m.inputs[i+1:]...)
				g.RemoveEdge(in, m)
				return
			}
		}
	})
}

// Before connects every input to the mixer, so inputs are processed
// first.
func (m *Mixer) Before(g *graph.Graph) error {
	for _, in := range m.inputs {
		g.AddEdge(in, m)
	}
	return nil
}

// Process implements graph.Processor.
func (m *Mixer) Process(b block.Block) error {
	for ch := range m.output {
		dst := m.output[ch][b.S0:b.S1]
		for i := range dst {
			dst[i] = 0
		}
		for _, in := range m.inputs {
			src := in.Output()
			if len(src) == 0 {
				continue
			}
			s := src[min(ch, len(src)-1)][b.S0:b.S1]
			for i := range dst {
				dst[i] += s[i]
			}
		}
		if m.gain != 1 {
			for i := range dst {
				dst[i] *= m.gain
			}
		}
	}
	return nil
}

// Reset implements graph.Processor.
func (m *Mixer) Reset() {}

// Output implements graph.AudioUnit.
func (m *Mixer) Output() signal.Float64 {
	return m.output
}

func (m *Mixer) String() string {
	return m.name
}
