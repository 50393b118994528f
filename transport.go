package engine

import (
	"fmt"
	"math"

	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/ppqn"
	"github.com/pipelined/engine/status"
	"github.com/pipelined/engine/timeline"
)

// State of the transport.
type State int

const (
	// Stopped transport doesn't move.
	Stopped State = iota
	// Playing transport moves and plays.
	Playing
	// CountingIn transport moves towards the recording start.
	CountingIn
	// Recording transport moves and records.
	Recording
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case CountingIn:
		return "counting in"
	case Recording:
		return "recording"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type command int

const (
	playCommand command = iota
	stopCommand
	recordCommand
	recordStartCommand
)

func (c command) String() string {
	switch c {
	case playCommand:
		return "play"
	case stopCommand:
		return "stop"
	case recordCommand:
		return "record"
	case recordStartCommand:
		return "start recording"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// transition returns the state the command leads to.
func (s State) transition(c command) (State, error) {
	switch {
	case c == playCommand && s == Stopped:
		return Playing, nil
	case c == recordCommand && s == Stopped:
		return CountingIn, nil
	case c == recordStartCommand && s == CountingIn:
		return Recording, nil
	case c == stopCommand && s != Stopped:
		return Stopped, nil
	}
	return s, fmt.Errorf("%w: %v when %v", ErrInvalidState, c, s)
}

// Play starts the playback from the current position.
func (e *Engine) Play() mutable.Mutation {
	return e.Mutate(e.play)
}

// Stop stops the transport. If reset is set, the position returns to
// where the transport was started. Stop with reset of stopped transport
// returns to the timeline start.
func (e *Engine) Stop(reset bool) mutable.Mutation {
	return e.Mutate(func() {
		e.stop(reset)
	})
}

// Seek moves the transport to the position.
func (e *Engine) Seek(position float64) mutable.Mutation {
	return e.Mutate(func() {
		e.seek(position)
	})
}

// PrepareRecording starts the count-in. Recording starts at the next bar
// after the current position, count-in starts countInBars before it.
func (e *Engine) PrepareRecording(countInBars int) mutable.Mutation {
	return e.Mutate(func() {
		e.prepareRecording(countInBars)
	})
}

// SetLoop replaces the loop area.
func (e *Engine) SetLoop(loop timeline.LoopArea) mutable.Mutation {
	return e.Mutate(func() {
		e.loop = loop
	})
}

// SetMetronome enables or disables the metronome.
func (e *Engine) SetMetronome(enabled bool) mutable.Mutation {
	return e.Mutate(func() {
		e.clock.SetMetronomeEnabled(enabled)
	})
}

// SetBPM changes the tempo used when there is no tempo automation.
func (e *Engine) SetBPM(bpm float64) mutable.Mutation {
	return e.Mutate(func() {
		e.renderer.SetBPM(bpm)
	})
}

// SetMarkers replaces all markers.
func (e *Engine) SetMarkers(markers ...timeline.Marker) mutable.Mutation {
	return e.Mutate(func() {
		e.markers.Set(markers...)
	})
}

// SetTempo replaces tempo automation points.
func (e *Engine) SetTempo(points ...timeline.TempoPoint) mutable.Mutation {
	return e.Mutate(func() {
		e.tempo.Set(points...)
	})
}

// Panic halts the engine on the next render pass.
func (e *Engine) Panic() mutable.Mutation {
	return e.Mutate(func() {
		e.panicking = true
	})
}

func (e *Engine) transit(c command) bool {
	next, err := e.state.transition(c)
	if err != nil {
		e.log.Debug(err.Error())
		return false
	}
	e.log.Debug(fmt.Sprintf("transport %v -> %v", e.state, next))
	e.state = next
	return true
}

func (e *Engine) transportChanged(position float64) {
	e.Notify(status.Notification{
		Kind:     status.TransportChanged,
		State:    e.state.String(),
		Position: position,
	})
}

func (e *Engine) play() {
	if !e.transit(playCommand) {
		return
	}
	e.startPosition = e.clock.Position()
	e.clock.SetTransporting(true)
	e.transportChanged(e.startPosition)
}

func (e *Engine) stop(reset bool) {
	if !e.transit(stopCommand) {
		if reset {
			e.seek(0)
		}
		return
	}
	e.stopTransport()
	if reset {
		e.seek(e.startPosition)
	}
	e.transportChanged(e.clock.Position())
}

// paused is called by the renderer when the transport stopped at the end
// of the disabled loop.
func (e *Engine) paused() {
	if !e.transit(stopCommand) {
		return
	}
	e.stopTransport()
	e.transportChanged(e.loop.To)
}

func (e *Engine) stopTransport() {
	e.clock.SetTransporting(false)
	e.clock.SetRecording(false)
	e.clock.SetCountingIn(false)
	e.cancelRecording()
}

func (e *Engine) seek(position float64) {
	e.clock.SetPosition(position)
	e.graph.Reset()
}

func (e *Engine) prepareRecording(countInBars int) {
	if !e.transit(recordCommand) {
		return
	}
	countInBars = int(math.Max(0, float64(countInBars)))
	start := ppqn.QuantizeCeil(e.clock.Position(), ppqn.Bar)
	e.startPosition = start - float64(countInBars)*ppqn.Bar
	e.clock.SetPosition(e.startPosition)
	e.clock.SetCountingIn(true)
	e.clock.SetTransporting(true)
	e.cancelRecording()
	e.cancelRecord = e.callbacks.Set(start, func() {
		e.startRecording(start)
	})
	e.transportChanged(e.startPosition)
}

func (e *Engine) startRecording(position float64) {
	e.cancelRecording()
	if !e.transit(recordStartCommand) {
		return
	}
	e.clock.SetCountingIn(false)
	e.clock.SetRecording(true)
	e.transportChanged(position)
}

func (e *Engine) cancelRecording() {
	if e.cancelRecord != nil {
		e.cancelRecord()
		e.cancelRecord = nil
	}
}
