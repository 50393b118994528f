// Package block splits render requests into sample-accurate blocks.
//
// A render request of a fixed number of samples, the quantum, covers a
// range of the timeline. Whenever a timeline event falls into that range,
// the request is split at the event position: the part before the event is
// emitted as a block, the event is applied and splitting continues with the
// rest of the request. Events are, in priority order for equal positions:
//
//	marker  - the next marker is reached, the section repeats or moves on;
//	loop    - the end of the loop area is reached;
//	callback - a registered callback position is reached;
//	tempo   - automated tempo changes on the 1/16 grid.
//
// Blocks of one request are contiguous and cover the whole quantum.
package block

import (
	"fmt"
	"strings"
)

// Flags describe the state of the transport during a block.
type Flags uint8

const (
	// Transporting is set when the playhead moves.
	Transporting Flags = 1 << iota
	// Discontinuous is set when the block doesn't continue the previous one.
	Discontinuous
	// Playing is set when the transport plays, but not while counting in.
	Playing
	// TempoChanged is set on the first block after a tempo change.
	TempoChanged
)

// Has reports if all provided flags are set.
func (f Flags) Has(flags Flags) bool {
	return f&flags == flags
}

func (f Flags) String() string {
	var sb strings.Builder
	for _, v := range []struct {
		flag Flags
		char byte
	}{
		{Transporting, 'T'},
		{Discontinuous, 'D'},
		{Playing, 'P'},
		{TempoChanged, 'B'},
	} {
		if f.Has(v.flag) {
			sb.WriteByte(v.char)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Block is a contiguous slice of a render request. P0 and P1 are timeline
// positions in pulses, S0 and S1 are sample offsets within the request.
type Block struct {
	Index int
	P0    float64
	P1    float64
	S0    int
	S1    int
	BPM   float64
	Flags Flags
}

// Length returns the number of samples in the block.
func (b Block) Length() int {
	return b.S1 - b.S0
}

func (b Block) String() string {
	return fmt.Sprintf("#%d [%d,%d) %.3f-%.3f bpm=%.2f %v", b.Index, b.S0, b.S1, b.P0, b.P1, b.BPM, b.Flags)
}
