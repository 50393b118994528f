package mixer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/mixer"
	"github.com/pipelined/engine/mock"
	"github.com/pipelined/engine/signal"
)

const quantum = 8

var playing = block.Block{S0: 0, S1: quantum, BPM: 120, Flags: block.Transporting | block.Playing}

func process(t *testing.T, g *graph.Graph, b block.Block) {
	t.Helper()
	order, err := g.Sorted()
	require.NoError(t, err)
	for _, p := range order {
		require.NoError(t, p.Process(b))
	}
}

func filled(numChannels int, v float64) signal.Float64 {
	s := signal.EmptyFloat64(numChannels, quantum)
	for i := range s {
		for j := range s[i] {
			s[i][j] = v
		}
	}
	return s
}

func TestMixer(t *testing.T) {
	tests := []struct {
		name     string
		channels []int
		values   []float64
		gain     float64
		expected float64
	}{
		{
			name:     "stereo",
			channels: []int{2, 2},
			values:   []float64{0.5, -0.25},
			gain:     1,
			expected: 0.25,
		},
		{
			name:     "mono inputs",
			channels: []int{1, 1, 1},
			values:   []float64{0.25, 0.25, 0.25},
			gain:     1,
			expected: 0.75,
		},
		{
			name:     "gain",
			channels: []int{2, 1},
			values:   []float64{0.5, 0.25},
			gain:     0.5,
			expected: 0.375,
		},
		{
			name:     "no inputs",
			gain:     1,
			expected: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := graph.New()
			var inputs []graph.AudioUnit
			for i := range test.channels {
				inputs = append(inputs, mock.NewSource("source", test.channels[i], quantum, test.values[i]))
			}
			m := mixer.New("mixer", 2, quantum, inputs...)
			g.Register(m)
			for _, in := range inputs {
				g.Register(in)
			}
			m.GainParam(test.gain).Apply()

			require.NoError(t, m.Before(g))
			process(t, g, playing)
			assert.Equal(t, filled(2, test.expected), m.Output())
		})
	}
}

func TestMixerInputs(t *testing.T) {
	g := graph.New()
	a := mock.NewSource("a", 2, quantum, 0.5)
	b := mock.NewSource("b", 2, quantum, 0.25)
	m := mixer.New("mixer", 2, quantum, a)
	g.Register(m)
	require.NoError(t, m.Before(g))
	assert.True(t, g.HasEdge(a, m))

	m.AddInput(b).Apply()
	require.NoError(t, m.Before(g))
	assert.True(t, g.HasEdge(b, m))
	process(t, g, playing)
	assert.Equal(t, filled(2, 0.75), m.Output())

	m.RemoveInput(g, a).Apply()
	assert.False(t, g.HasEdge(a, m))
	process(t, g, playing)
	assert.Equal(t, filled(2, 0.25), m.Output())
	assert.Equal(t, "mixer", m.String())
}
