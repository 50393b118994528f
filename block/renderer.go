package block

import (
	"math"

	"github.com/pipelined/engine/ppqn"
	"github.com/pipelined/engine/timeline"
)

const (
	// maxActions limits the number of events applied during one request.
	// It only kicks in for sections shorter than a sample.
	maxActions = 256
	// epsilon absorbs float error when positions are converted to samples.
	epsilon = 1e-6
)

// Sources are the event providers queried by the renderer. Any of them
// can be nil.
type Sources struct {
	Loop      *timeline.LoopArea
	Markers   *timeline.MarkerTrack
	Tempo     *timeline.TempoTrack
	Callbacks *timeline.Callbacks
}

// MarkerState is the marker section being played. Zero value means no
// marker is active.
type MarkerState struct {
	Active bool
	Marker timeline.Marker
	Repeat int
}

// Renderer produces blocks for render requests.
type Renderer struct {
	// PauseOnLoopDisabled pauses the transport at the loop end when the
	// loop is disabled.
	PauseOnLoopDisabled bool
	// OnMarker is called at the end of a request if the marker state
	// changed.
	OnMarker func(MarkerState)
	// OnPause is called when the transport was paused at the loop end.
	OnPause func()

	clock      *Clock
	sources    Sources
	sampleRate float64
	bpm        float64

	tempoChanged   bool
	marker         MarkerState
	markersVersion uint64
	markersEnabled bool
	// callbacks at or before this position were fired.
	fired       float64
	freeRunning float64
	blocks      []Block
}

// Clock is the transport clock driven by the renderer.
type Clock = timeline.Clock

// NewRenderer returns a renderer for the clock and sources.
func NewRenderer(clock *Clock, sampleRate int, bpm float64, sources Sources) *Renderer {
	return &Renderer{
		clock:      clock,
		sources:    sources,
		sampleRate: float64(sampleRate),
		bpm:        bpm,
		fired:      math.Inf(-1),
		blocks:     make([]Block, 0, 16),
	}
}

// BPM returns the tempo in effect.
func (r *Renderer) BPM() float64 {
	return r.bpm
}

// SetBPM changes the tempo. The next block is flagged with TempoChanged.
func (r *Renderer) SetBPM(bpm float64) {
	if bpm <= 0 || bpm == r.bpm {
		return
	}
	r.bpm = bpm
	r.tempoChanged = true
}

// Marker returns the active marker section.
func (r *Renderer) Marker() MarkerState {
	return r.marker
}

// FreeRunning returns the position used while transport is paused.
func (r *Renderer) FreeRunning() float64 {
	return r.freeRunning
}

// Render splits a request of quantum samples into blocks. Returned slice
// is reused by the next call.
func (r *Renderer) Render(quantum int) []Block {
	r.blocks = r.blocks[:0]
	if quantum <= 0 {
		return r.blocks
	}
	if !r.clock.Transporting() {
		p0 := r.freeRunning
		p1 := p0 + ppqn.SamplesToPulses(float64(quantum), r.bpm, r.sampleRate)
		r.freeRunning = p1
		r.emit(p0, p1, 0, quantum, 0)
		return r.blocks
	}

	var (
		p0            = r.clock.Position()
		s0            = 0
		discontinuous = r.clock.LeapAndReset()
		markerChanged bool
	)
	if discontinuous {
		r.fired = math.Inf(-1)
		r.locateTempo(p0)
	}
	for actions := 0; s0 < quantum; actions++ {
		if r.markersChanged() || discontinuous {
			if r.locateMarker(p0) {
				markerChanged = true
			}
		}
		p1 := p0 + ppqn.SamplesToPulses(float64(quantum-s0), r.bpm, r.sampleRate)
		a := none()
		if actions < maxActions {
			a = r.nextAction(p0, p1)
		}
		if a.kind == noAction {
			r.emit(p0, p1, s0, quantum, r.flags(discontinuous))
			discontinuous = false
			p0, s0 = p1, quantum
			break
		}
		if a.position > p0 {
			s1 := s0 + int(math.Floor(ppqn.PulsesToSamples(a.position-p0, r.bpm, r.sampleRate)+epsilon))
			if s1 > quantum {
				s1 = quantum
			}
			if s1 > s0 {
				r.emit(p0, a.position, s0, s1, r.flags(discontinuous))
				discontinuous = false
				s0 = s1
			}
			p0 = a.position
		}
		switch a.kind {
		case loopAction:
			if !r.sources.Loop.Enabled {
				r.clock.SetTransporting(false)
				if s0 < quantum {
					r.emit(p0, p0, s0, quantum, 0)
					s0 = quantum
				}
				if r.OnPause != nil {
					r.OnPause()
				}
				break
			}
			p0 = a.target
			discontinuous = true
			r.fired = math.Inf(-1)
			r.locateTempo(p0)
		case markerAction:
			if r.applyMarker(a) {
				p0 = a.prev.Position
				discontinuous = true
				r.fired = math.Inf(-1)
				r.locateTempo(p0)
			}
			markerChanged = true
		case callbackAction:
			r.fired = a.position
			r.sources.Callbacks.Fire(a.position)
		case tempoAction:
			r.SetBPM(a.bpm)
		}
	}
	if discontinuous {
		// the jump happened at the very end of the request
		r.clock.SetPosition(p0)
	} else {
		r.clock.Advance(p0)
	}
	if markerChanged && r.OnMarker != nil {
		r.OnMarker(r.marker)
	}
	return r.blocks
}

// locateTempo applies the automated tempo of the grid line at or before
// position. Called after every jump.
func (r *Renderer) locateTempo(position float64) {
	r.SetBPM(r.sources.Tempo.ValueAt(ppqn.QuantizeFloor(position, ppqn.SemiQuaver), r.bpm))
}

func (r *Renderer) emit(p0, p1 float64, s0, s1 int, flags Flags) {
	r.blocks = append(r.blocks, Block{
		Index: len(r.blocks),
		P0:    p0,
		P1:    p1,
		S0:    s0,
		S1:    s1,
		BPM:   r.bpm,
		Flags: flags,
	})
	if flags.Has(Transporting) {
		r.tempoChanged = false
	}
}

func (r *Renderer) flags(discontinuous bool) Flags {
	f := Transporting
	if discontinuous {
		f |= Discontinuous
	}
	if !r.clock.CountingIn() {
		f |= Playing
	}
	if r.tempoChanged {
		f |= TempoChanged
	}
	return f
}

// nextAction evaluates events in priority order and returns the nearest
// one. Markers fire in [p0, p1], loop end in (p0, p1], callbacks and tempo
// changes in [p0, p1). An event exactly at p1 either fires at the end of
// this request or at the start of the next one, never in both.
func (r *Renderer) nextAction(p0, p1 float64) action {
	a := none()
	r.markerAction(p0, p1, &a)
	r.loopAction(p0, p1, &a)
	r.callbackAction(p0, p1, &a)
	r.tempoAction(p0, p1, &a)
	return a
}

func (r *Renderer) markerAction(p0, p1 float64, a *action) {
	markers := r.sources.Markers
	if markers == nil || !markers.Enabled {
		return
	}
	if r.marker.Active {
		next, ok := markers.Next(r.marker.Marker)
		if ok && next.Position >= p0 && next.Position <= p1 && a.nearer(next.Position) {
			*a = action{
				kind:     markerAction,
				position: next.Position,
				prev:     r.marker.Marker,
				hasPrev:  true,
				next:     next,
			}
		}
		return
	}
	cursor := markers.Cursor(p0)
	if first, ok := cursor.Next(); ok && first.Position <= p1 && a.nearer(first.Position) {
		*a = action{
			kind:     markerAction,
			position: first.Position,
			next:     first,
		}
	}
}

func (r *Renderer) loopAction(p0, p1 float64, a *action) {
	loop := r.sources.Loop
	if loop == nil || !loop.Valid() {
		return
	}
	switch {
	case loop.Enabled:
		if r.clock.Recording() || r.clock.CountingIn() {
			return
		}
	case !r.PauseOnLoopDisabled:
		return
	}
	if loop.To > p0 && loop.To <= p1 && a.nearer(loop.To) {
		*a = action{
			kind:     loopAction,
			position: loop.To,
			target:   loop.From,
		}
	}
}

func (r *Renderer) callbackAction(p0, p1 float64, a *action) {
	callbacks := r.sources.Callbacks
	if callbacks == nil {
		return
	}
	var (
		position float64
		ok       bool
	)
	if r.fired >= p0 {
		position, ok = callbacks.Next(r.fired, false, p1)
	} else {
		position, ok = callbacks.Next(p0, true, p1)
	}
	if ok && a.nearer(position) {
		*a = action{
			kind:     callbackAction,
			position: position,
		}
	}
}

func (r *Renderer) tempoAction(p0, p1 float64, a *action) {
	tempo := r.sources.Tempo
	if tempo == nil || !tempo.Enabled {
		return
	}
	for g := ppqn.QuantizeCeil(p0, ppqn.SemiQuaver); g < p1 && a.nearer(g); g += ppqn.SemiQuaver {
		if bpm := tempo.ValueAt(g, r.bpm); bpm > 0 && bpm != r.bpm {
			*a = action{
				kind:     tempoAction,
				position: g,
				bpm:      bpm,
			}
			return
		}
	}
}

// applyMarker advances the section state. It returns true if the section
// has to be played again.
func (r *Renderer) applyMarker(a action) bool {
	if !a.hasPrev {
		r.marker = MarkerState{Active: true, Marker: a.next}
		return false
	}
	if !r.marker.Active || r.marker.Marker != a.prev {
		r.marker = MarkerState{Active: true, Marker: a.prev}
	}
	r.marker.Repeat++
	if a.prev.Plays == 0 || r.marker.Repeat < a.prev.Plays {
		return true
	}
	r.marker = MarkerState{Active: true, Marker: a.next}
	return false
}

func (r *Renderer) markersChanged() bool {
	markers := r.sources.Markers
	if markers == nil {
		return false
	}
	v, enabled := markers.Version(), markers.Enabled
	if v == r.markersVersion && enabled == r.markersEnabled {
		return false
	}
	r.markersVersion, r.markersEnabled = v, enabled
	return true
}

// locateMarker finds the section that contains position. It returns true
// if the active marker changed.
func (r *Renderer) locateMarker(position float64) bool {
	markers := r.sources.Markers
	if markers == nil || !markers.Enabled {
		if r.marker.Active {
			r.marker = MarkerState{}
			return true
		}
		return false
	}
	m, ok := markers.LowerEqual(position)
	if !ok {
		if r.marker.Active {
			r.marker = MarkerState{}
			return true
		}
		return false
	}
	if r.marker.Active && r.marker.Marker == m {
		return false
	}
	r.marker = MarkerState{Active: true, Marker: m}
	return true
}
