package graph_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/graph"
)

type processor struct {
	name   string
	resets int
}

func (p *processor) Process(block.Block) error { return nil }
func (p *processor) Reset()                    { p.resets++ }
func (p *processor) String() string            { return p.name }

func processors(names ...string) []*processor {
	ps := make([]*processor, 0, len(names))
	for _, n := range names {
		ps = append(ps, &processor{name: n})
	}
	return ps
}

func assertOrder(t *testing.T, g *graph.Graph, edges [][2]*processor) {
	t.Helper()
	order, err := g.Sorted()
	require.NoError(t, err)
	require.Len(t, order, g.Len())
	index := make(map[graph.Processor]int, len(order))
	for i, p := range order {
		index[p] = i
	}
	for _, e := range edges {
		if !g.HasEdge(e[0], e[1]) {
			continue
		}
		assert.Less(t, index[e[0]], index[e[1]], "%v must precede %v", e[0], e[1])
	}
}

func TestSorted(t *testing.T) {
	p := processors("a", "b", "c", "d", "e")
	tests := []struct {
		name     string
		vertices []*processor
		edges    [][2]*processor
		expected []*processor
	}{
		{
			name:     "no edges keeps registration order",
			vertices: p,
			expected: p,
		},
		{
			name:     "chain",
			vertices: p[:3],
			edges:    [][2]*processor{{p[2], p[1]}, {p[1], p[0]}},
			expected: []*processor{p[2], p[1], p[0]},
		},
		{
			name:     "diamond",
			vertices: p[:4],
			edges:    [][2]*processor{{p[3], p[1]}, {p[3], p[2]}, {p[1], p[0]}, {p[2], p[0]}},
			expected: []*processor{p[3], p[1], p[2], p[0]},
		},
		{
			name:     "edges add vertices",
			edges:    [][2]*processor{{p[4], p[0]}},
			expected: []*processor{p[4], p[0]},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := graph.New()
			for _, v := range test.vertices {
				g.AddVertex(v)
			}
			for _, e := range test.edges {
				g.AddEdge(e[0], e[1])
			}
			order, err := g.Sorted()
			require.NoError(t, err)
			require.Len(t, order, len(test.expected))
			for i := range test.expected {
				assert.Equal(t, test.expected[i], order[i])
			}
		})
	}
}

func TestSortedIsCached(t *testing.T) {
	p := processors("a", "b")
	g := graph.New()
	g.AddEdge(p[0], p[1])

	first, err := g.Sorted()
	require.NoError(t, err)
	second, err := g.Sorted()
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0])

	g.RemoveEdge(p[0], p[1])
	g.AddEdge(p[1], p[0])
	third, err := g.Sorted()
	require.NoError(t, err)
	assert.Equal(t, []graph.Processor{p[1], p[0]}, third)
}

func TestIdempotent(t *testing.T) {
	p := processors("a", "b")
	g := graph.New()
	g.AddVertex(p[0])
	g.AddVertex(p[0])
	assert.Equal(t, 1, g.Len())

	g.AddEdge(p[0], p[1])
	v := g.Version()
	g.AddEdge(p[0], p[1])
	g.AddVertex(p[1])
	assert.Equal(t, v, g.Version(), "no-op mutations keep the cache")

	g.RemoveEdge(p[0], p[1])
	g.RemoveEdge(p[0], p[1])
	assert.False(t, g.HasEdge(p[0], p[1]))

	g.RemoveVertex(p[1])
	g.RemoveVertex(p[1])
	assert.Equal(t, 1, g.Len())
}

func TestRemoveVertex(t *testing.T) {
	p := processors("a", "b", "c")
	g := graph.New()
	g.AddEdge(p[0], p[1])
	g.AddEdge(p[1], p[2])
	g.AddEdge(p[2], p[0]) // cycle

	_, err := g.Sorted()
	require.Error(t, err)

	g.RemoveVertex(p[1])
	assert.False(t, g.HasEdge(p[0], p[1]))
	assert.False(t, g.HasEdge(p[1], p[2]))
	order, err := g.Sorted()
	require.NoError(t, err)
	assert.Equal(t, []graph.Processor{p[2], p[0]}, order)
}

func TestSubscriptions(t *testing.T) {
	p := processors("a", "b")
	g := graph.New()
	remove := g.Register(p[0])
	disconnect := g.Connect(p[1], p[0])
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.HasEdge(p[1], p[0]))

	disconnect()
	assert.False(t, g.HasEdge(p[1], p[0]))
	remove()
	remove()
	assert.Equal(t, 1, g.Len())
}

func TestCycle(t *testing.T) {
	tests := []struct {
		name     string
		edges    [][2]int
		expected string
	}{
		{
			name:     "self loop",
			edges:    [][2]int{{0, 0}},
			expected: "processor graph cycle: a -> a",
		},
		{
			name:     "two vertices",
			edges:    [][2]int{{0, 1}, {1, 0}},
			expected: "processor graph cycle: a -> b -> a",
		},
		{
			name:     "downstream of a cycle",
			edges:    [][2]int{{3, 0}, {0, 1}, {1, 2}, {2, 0}, {2, 4}},
			expected: "processor graph cycle: a -> b -> c -> a",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := processors("a", "b", "c", "d", "e")
			g := graph.New()
			for _, e := range test.edges {
				g.AddEdge(p[e[0]], p[e[1]])
			}
			order, err := g.Sorted()
			assert.Nil(t, order)
			var cycleErr *graph.CycleError
			require.True(t, errors.As(err, &cycleErr))
			assert.Equal(t, test.expected, err.Error())
			assert.Equal(t, cycleErr.Path[0], cycleErr.Path[len(cycleErr.Path)-1])
		})
	}
}

func TestReset(t *testing.T) {
	p := processors("a", "b")
	g := graph.New()
	g.AddEdge(p[0], p[1])
	g.Reset()
	assert.Equal(t, 1, p[0].resets)
	assert.Equal(t, 1, p[1].resets)
}

func TestRandomMutations(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	const n = 20
	p := make([]*processor, n)
	for i := range p {
		p[i] = &processor{}
	}
	// edges only go forward in a hidden permutation, so the graph stays
	// acyclic
	rank := rnd.Perm(n)
	g := graph.New()
	var edges [][2]*processor
	for step := 0; step < 500; step++ {
		a, b := rnd.Intn(n), rnd.Intn(n)
		switch rnd.Intn(4) {
		case 0:
			g.AddVertex(p[a])
		case 1:
			g.RemoveVertex(p[a])
		case 2:
			if rank[a] > rank[b] {
				a, b = b, a
			}
			if a != b {
				g.AddEdge(p[a], p[b])
				edges = append(edges, [2]*processor{p[a], p[b]})
			}
		case 3:
			if len(edges) > 0 {
				e := edges[rnd.Intn(len(edges))]
				g.RemoveEdge(e[0], e[1])
			}
		}
		if step%5 == 0 {
			assertOrder(t, g, edges)
		}
	}
}
