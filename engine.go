package engine

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/metric"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/signal"
	"github.com/pipelined/engine/status"
	"github.com/pipelined/engine/timeline"
)

const (
	// DefaultSampleRate is used when WithSampleRate option isn't provided.
	DefaultSampleRate = 48000
	// DefaultQuantum is the number of samples buffers are preallocated for.
	DefaultQuantum = 512
	// DefaultBPM is the tempo used when there is no tempo automation.
	DefaultBPM = 120
	// DefaultQueueSize is the number of mutations that can be pending.
	DefaultQueueSize = 256
)

type (
	// Logger is a global interface for engine loggers.
	Logger interface {
		Debug(...interface{})
		Info(...interface{})
		Error(...interface{})
	}

	// BeforeProcessor is notified before the processor graph is sorted.
	// It's the place to change the wiring of the graph.
	BeforeProcessor interface {
		graph.Processor
		Before(*graph.Graph) error
	}

	// AfterProcessor is notified when all blocks are processed.
	AfterProcessor interface {
		graph.Processor
		After() error
	}

	// Mutable is implemented by processors that accept mutations pushed to
	// the engine. Embedding mutable.Context is enough.
	Mutable interface {
		Mutability() mutable.Context
	}
)

// Engine renders the processor graph along the timeline.
type Engine struct {
	mutable.Context
	uid        string
	sampleRate int
	quantum    int
	bpm        float64
	log        Logger

	clock     *timeline.Clock
	loop      timeline.LoopArea
	markers   *timeline.MarkerTrack
	tempo     *timeline.TempoTrack
	callbacks *timeline.Callbacks
	renderer  *block.Renderer

	graph        *graph.Graph
	graphVersion uint64
	before       []BeforeProcessor
	after        []AfterProcessor
	mutables     []Mutable

	state         State
	startPosition float64
	cancelRecord  func()
	pauseOnLoop   bool
	metronome     *metronome

	mode    OutputMode
	primary graph.AudioUnit
	stems   []graph.AudioUnit

	queue     *mutable.Queue
	queueSize int
	mutations mutable.Mutations

	board    *status.Board
	notifier *status.Notifier
	metered  bool
	measure  metric.MeasureFunc
	passes   uint64

	panicking bool
	halted    atomic.Bool
	err       error
}

// New creates a new stopped engine and applies provided options.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		Context:    mutable.Mutable(),
		uid:        xid.New().String(),
		sampleRate: DefaultSampleRate,
		quantum:    DefaultQuantum,
		bpm:        DefaultBPM,
		log:        silentLogger{},
		clock:      timeline.NewClock(),
		markers:    timeline.NewMarkerTrack(),
		tempo:      timeline.NewTempoTrack(),
		callbacks:  timeline.NewCallbacks(),
		graph:      graph.New(),
		queueSize:  DefaultQueueSize,
		board:      &status.Board{},
		mutations:  make(mutable.Mutations),
	}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	e.queue = mutable.NewQueue(e.queueSize)
	e.metronome = newMetronome(e.sampleRate, e.quantum)
	e.renderer = block.NewRenderer(e.clock, e.sampleRate, e.bpm, block.Sources{
		Loop:      &e.loop,
		Markers:   e.markers,
		Tempo:     e.tempo,
		Callbacks: e.callbacks,
	})
	e.renderer.PauseOnLoopDisabled = e.pauseOnLoop
	e.renderer.OnMarker = e.markerChanged
	e.renderer.OnPause = e.paused
	if e.metered {
		e.measure = metric.Meter(e.uid, e.sampleRate)
	}
	e.publish()
	e.log.Debug(fmt.Sprintf("engine %s created: %d Hz, %.2f bpm", e.uid, e.sampleRate, e.bpm))
	return e, nil
}

// UID returns unique id of the engine.
func (e *Engine) UID() string {
	return e.uid
}

// SampleRate returns the sample rate of the engine.
func (e *Engine) SampleRate() int {
	return e.sampleRate
}

// Push sends mutations to the engine. They are applied at the beginning of
// the next render pass: engine mutations first, then mutations of each
// processor in registration order. Mutations of one component keep the
// order they were pushed in. Safe for concurrent use, never blocks.
func (e *Engine) Push(mutations ...mutable.Mutation) error {
	return e.queue.Push(mutations...)
}

// Status returns the snapshot published at the end of the last render
// pass. Safe for concurrent use.
func (e *Engine) Status() status.Snapshot {
	return e.board.Read()
}

// Halted reports if the engine failed. Safe for concurrent use.
func (e *Engine) Halted() bool {
	return e.halted.Load()
}

// Err returns the failure that halted the engine.
func (e *Engine) Err() error {
	if !e.halted.Load() {
		return nil
	}
	return e.err
}

// Render renders one quantum into out. The size of out defines the
// quantum. Render must not be called concurrently.
func (e *Engine) Render(out signal.Float64) (err error) {
	if e.halted.Load() {
		out.ClearAll()
		return &haltedError{cause: e.err}
	}
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = e.halt(out, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	e.applyMutations()
	if e.panicking {
		return e.halt(out, ErrPanic)
	}
	e.refreshHooks()
	for _, p := range e.before {
		if err := p.Before(e.graph); err != nil {
			return e.halt(out, fmt.Errorf("before %s: %w", graph.Name(p), err))
		}
	}
	order, err := e.graph.Sorted()
	if err != nil {
		return e.halt(out, err)
	}
	if err := e.checkOutput(out); err != nil {
		return e.halt(out, err)
	}

	quantum := out.Size()
	click := e.mode == OutputMix && (e.clock.MetronomeEnabled() || e.clock.CountingIn())
	if click {
		e.metronome.prepare(quantum)
	}
	blocks := e.renderer.Render(quantum)
	for _, b := range blocks {
		for _, p := range order {
			if err := p.Process(b); err != nil {
				return e.halt(out, fmt.Errorf("process %s: %w", graph.Name(p), err))
			}
		}
		if click {
			e.metronome.process(b)
		}
	}
	e.assemble(out, click)

	e.refreshHooks()
	for _, p := range e.after {
		if err := p.After(); err != nil {
			return e.halt(out, fmt.Errorf("after %s: %w", graph.Name(p), err))
		}
	}
	e.passes++
	if e.notifier != nil {
		e.notifier.Flush()
	}
	e.publish()
	if e.measure != nil {
		e.measure(len(blocks), quantum, time.Since(started))
	}
	return nil
}

// Register adds the processor to the graph and returns a function that
// removes it. Must be called from the render goroutine or before the
// rendering is started.
func (e *Engine) Register(p graph.Processor) (remove func()) {
	return e.graph.Register(p)
}

// Connect makes the processor from to be processed before processor to.
// Must be called from the render goroutine or before the rendering is
// started.
func (e *Engine) Connect(from, to graph.Processor) (disconnect func()) {
	return e.graph.Connect(from, to)
}

// Graph returns the processor graph. Must be used only from the render
// goroutine.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Markers returns the marker track. Must be used only from the render
// goroutine.
func (e *Engine) Markers() *timeline.MarkerTrack {
	return e.markers
}

// Tempo returns the tempo automation. Must be used only from the render
// goroutine.
func (e *Engine) Tempo() *timeline.TempoTrack {
	return e.tempo
}

// Callbacks returns the callbacks fired at timeline positions. Must be
// used only from the render goroutine.
func (e *Engine) Callbacks() *timeline.Callbacks {
	return e.callbacks
}

// State returns the transport state. Must be used only from the render
// goroutine, other goroutines should use Status.
func (e *Engine) State() State {
	return e.state
}

// Notify queues the notification for delivery at the end of the pass.
// Must be called from the render goroutine, usually by processors.
func (e *Engine) Notify(n status.Notification) {
	if e.notifier != nil {
		e.notifier.Post(n)
	}
}

func (e *Engine) applyMutations() {
	e.mutations = e.queue.Drain(e.mutations)
	if len(e.mutations) == 0 {
		return
	}
	e.mutations.ApplyTo(e.Context)
	// engine mutations could register new processors
	e.refreshHooks()
	for _, m := range e.mutables {
		e.mutations.ApplyTo(m.Mutability())
	}
	if n := e.mutations.Discard(); n > 0 {
		e.log.Debug(fmt.Sprintf("discarded %d mutations of unknown components", n))
	}
}

// refreshHooks collects processors with optional interfaces after the
// graph was changed.
func (e *Engine) refreshHooks() {
	v := e.graph.Version()
	if v == e.graphVersion {
		return
	}
	e.graphVersion = v
	e.before = e.before[:0]
	e.after = e.after[:0]
	e.mutables = e.mutables[:0]
	for _, p := range e.graph.Vertices() {
		if h, ok := p.(BeforeProcessor); ok {
			e.before = append(e.before, h)
		}
		if h, ok := p.(AfterProcessor); ok {
			e.after = append(e.after, h)
		}
		if m, ok := p.(Mutable); ok {
			e.mutables = append(e.mutables, m)
		}
	}
	e.log.Debug(fmt.Sprintf("graph changed: %d processors", e.graph.Len()))
}

// halt stops the engine permanently.
func (e *Engine) halt(out signal.Float64, err error) error {
	out.ClearAll()
	e.err = err
	e.halted.Store(true)
	e.state = Stopped
	e.clock.SetTransporting(false)
	e.log.Error(fmt.Sprintf("engine %s halted: %v", e.uid, err))
	for _, p := range e.graph.Vertices() {
		if c, ok := p.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				e.log.Error(fmt.Sprintf("close %s: %v", graph.Name(p), cerr))
			}
		}
	}
	if e.notifier != nil {
		e.notifier.Post(status.Notification{
			Kind:     status.Failure,
			Position: e.clock.Position(),
			Err:      err,
		})
		e.notifier.Flush()
	}
	e.publish()
	return err
}

func (e *Engine) publish() {
	var flags status.Flags
	if e.clock.Transporting() {
		flags |= status.Transporting
	}
	switch e.state {
	case Playing:
		flags |= status.Playing
	case Recording:
		flags |= status.Playing | status.Recording
	case CountingIn:
		flags |= status.CountingIn
	}
	if e.clock.MetronomeEnabled() {
		flags |= status.Metronome
	}
	if e.halted.Load() {
		flags |= status.Halted
	}
	marker := e.renderer.Marker()
	if marker.Active {
		flags |= status.MarkerActive
	}
	e.board.Publish(status.Snapshot{
		Position: e.clock.Position(),
		BPM:      e.renderer.BPM(),
		Flags:    flags,
		Marker:   marker.Marker.ID,
		Repeat:   marker.Repeat,
		Passes:   e.passes,
	})
}

func (e *Engine) markerChanged(s block.MarkerState) {
	n := status.Notification{
		Kind:     status.MarkerChanged,
		ID:       -1,
		Position: e.clock.Position(),
	}
	if s.Active {
		n.ID = s.Marker.ID
		n.Repeat = s.Repeat
	}
	e.Notify(n)
}

// silentLogger implements Logger interface and does nothing.
type silentLogger struct{}

func (silentLogger) Debug(...interface{}) {}
func (silentLogger) Info(...interface{})  {}
func (silentLogger) Error(...interface{}) {}
