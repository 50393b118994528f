package block

import (
	"math"

	"github.com/pipelined/engine/timeline"
)

type actionKind int

const (
	noAction actionKind = iota
	loopAction
	markerAction
	callbackAction
	tempoAction
)

// action is the nearest timeline event inside the block being split.
type action struct {
	kind     actionKind
	position float64
	// loop
	target float64
	// marker
	prev    timeline.Marker
	hasPrev bool
	next    timeline.Marker
	// tempo
	bpm float64
}

func none() action {
	return action{position: math.Inf(1)}
}

// nearer reports if position should replace the current action. Equal
// positions keep the action found first.
func (a *action) nearer(position float64) bool {
	return a.kind == noAction || position < a.position
}

func (k actionKind) String() string {
	switch k {
	case loopAction:
		return "loop"
	case markerAction:
		return "marker"
	case callbackAction:
		return "callback"
	case tempoAction:
		return "tempo"
	}
	return "none"
}
