// Package graph keeps processors in a dependency graph and provides their
// execution order.
//
// The order is computed lazily: mutations only invalidate the cached
// order and the next call to Sorted recomputes it. Wiring may change many
// times between two render passes, but it is sorted at most once per pass.
package graph

import (
	"fmt"
	"strings"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/signal"
)

type (
	// Processor is a unit of work executed once per block.
	Processor interface {
		// Process handles one block. Returned error halts the engine.
		Process(block.Block) error
		// Reset clears the internal state. It's called when the transport
		// is reset.
		Reset()
	}

	// AudioUnit is a processor that produces audio.
	AudioUnit interface {
		Processor
		Output() signal.Float64
	}

	// Graph is a directed graph of processors. An edge from a to b means
	// that a must be processed before b. Graph isn't safe for concurrent
	// use.
	Graph struct {
		// vertices in registration order.
		vertices   []Processor
		successors map[Processor][]Processor
		edges      map[edge]struct{}

		order   []Processor
		valid   bool
		version uint64
	}

	edge struct {
		from, to Processor
	}

	// CycleError is returned by Sorted when the graph contains a cycle.
	// Path starts and ends with the same processor.
	CycleError struct {
		Path []Processor
	}
)

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		successors: make(map[Processor][]Processor),
		edges:      make(map[edge]struct{}),
	}
}

// Register adds the processor and returns a function that removes it.
func (g *Graph) Register(p Processor) (remove func()) {
	g.AddVertex(p)
	return func() {
		g.RemoveVertex(p)
	}
}

// Connect adds the edge and returns a function that removes it. Missing
// vertices are added.
func (g *Graph) Connect(from, to Processor) (disconnect func()) {
	g.AddEdge(from, to)
	return func() {
		g.RemoveEdge(from, to)
	}
}

// AddVertex adds the processor to the graph. Adding it twice has no
// effect.
func (g *Graph) AddVertex(p Processor) {
	if g.has(p) {
		return
	}
	g.vertices = append(g.vertices, p)
	g.invalidate()
}

// RemoveVertex removes the processor and all edges incident to it.
func (g *Graph) RemoveVertex(p Processor) {
	i := g.indexOf(p)
	if i < 0 {
		return
	}
	g.vertices = append(g.vertices[:i], g.vertices[i+1:]...)
	for _, to := range g.successors[p] {
		delete(g.edges, edge{from: p, to: to})
	}
	delete(g.successors, p)
	for from, successors := range g.successors {
		if _, ok := g.edges[edge{from: from, to: p}]; !ok {
			continue
		}
		delete(g.edges, edge{from: from, to: p})
		g.successors[from] = without(successors, p)
	}
	g.invalidate()
}

// AddEdge adds the dependency between processors. Adding it twice has no
// effect.
func (g *Graph) AddEdge(from, to Processor) {
	e := edge{from: from, to: to}
	if _, ok := g.edges[e]; ok {
		return
	}
	g.AddVertex(from)
	g.AddVertex(to)
	g.edges[e] = struct{}{}
	g.successors[from] = append(g.successors[from], to)
	g.invalidate()
}

// RemoveEdge removes the dependency between processors.
func (g *Graph) RemoveEdge(from, to Processor) {
	e := edge{from: from, to: to}
	if _, ok := g.edges[e]; !ok {
		return
	}
	delete(g.edges, e)
	g.successors[from] = without(g.successors[from], to)
	g.invalidate()
}

// HasEdge reports if the edge is in the graph.
func (g *Graph) HasEdge(from, to Processor) bool {
	_, ok := g.edges[edge{from: from, to: to}]
	return ok
}

// Len returns the number of processors.
func (g *Graph) Len() int {
	return len(g.vertices)
}

// Version is incremented by every mutation of the graph.
func (g *Graph) Version() uint64 {
	return g.version
}

// Vertices returns processors in registration order.
func (g *Graph) Vertices() []Processor {
	return g.vertices
}

// Reset resets all processors in registration order.
func (g *Graph) Reset() {
	for _, p := range g.vertices {
		p.Reset()
	}
}

// Sorted returns processors ordered so that every edge source comes before
// its target. The same slice is returned until the graph is mutated and
// must not be modified.
func (g *Graph) Sorted() ([]Processor, error) {
	if g.valid {
		return g.order, nil
	}
	indegree := make(map[Processor]int, len(g.vertices))
	for _, successors := range g.successors {
		for _, to := range successors {
			indegree[to]++
		}
	}
	order := make([]Processor, 0, len(g.vertices))
	for _, p := range g.vertices {
		if indegree[p] == 0 {
			order = append(order, p)
		}
	}
	for i := 0; i < len(order); i++ {
		for _, to := range g.successors[order[i]] {
			indegree[to]--
			if indegree[to] == 0 {
				order = append(order, to)
			}
		}
	}
	if len(order) != len(g.vertices) {
		return nil, &CycleError{Path: g.cyclePath(indegree)}
	}
	g.order = order
	g.valid = true
	return g.order, nil
}

// cyclePath walks predecessors of unsorted vertices until one repeats.
// Every unsorted vertex has at least one unsorted predecessor.
func (g *Graph) cyclePath(indegree map[Processor]int) []Processor {
	predecessor := make(map[Processor]Processor)
	for _, from := range g.vertices {
		if indegree[from] == 0 {
			continue
		}
		for _, to := range g.successors[from] {
			if _, ok := predecessor[to]; !ok && indegree[to] > 0 {
				predecessor[to] = from
			}
		}
	}
	var start Processor
	for _, p := range g.vertices {
		if indegree[p] > 0 {
			start = p
			break
		}
	}
	var (
		walk    []Processor
		visited = make(map[Processor]int)
	)
	for p := start; ; p = predecessor[p] {
		if i, ok := visited[p]; ok {
			walk = walk[i:]
			break
		}
		visited[p] = len(walk)
		walk = append(walk, p)
	}
	// walk goes against the edges
	path := make([]Processor, 0, len(walk)+1)
	path = append(path, walk[0])
	for i := len(walk) - 1; i > 0; i-- {
		path = append(path, walk[i])
	}
	return append(path, walk[0])
}

func (g *Graph) invalidate() {
	g.valid = false
	g.order = nil
	g.version++
}

func (g *Graph) has(p Processor) bool {
	return g.indexOf(p) >= 0
}

func (g *Graph) indexOf(p Processor) int {
	for i := range g.vertices {
		if g.vertices[i] == p {
			return i
		}
	}
	return -1
}

func without(ps []Processor, p Processor) []Processor {
	for i := range ps {
		if ps[i] == p {
			return append(ps[:i], ps[i+1:]...)
		}
	}
	return ps
}

func (e *CycleError) Error() string {
	names := make([]string, 0, len(e.Path))
	for _, p := range e.Path {
		names = append(names, Name(p))
	}
	return fmt.Sprintf("processor graph cycle: %s", strings.Join(names, " -> "))
}

// Name returns a printable name of the processor.
func Name(p Processor) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
