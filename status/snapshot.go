// Package status publishes the state of the render goroutine to other
// goroutines without blocking it.
package status

import (
	"math"
	"runtime"
	"sync/atomic"
)

// Flags describe the transport state in the snapshot.
type Flags uint64

const (
	// Transporting is set while the playhead moves.
	Transporting Flags = 1 << iota
	// Playing is set while playing or recording.
	Playing
	// Recording is set while recording.
	Recording
	// CountingIn is set during the count-in before recording.
	CountingIn
	// Metronome is set when the metronome is enabled.
	Metronome
	// MarkerActive is set when a marker section is being played.
	MarkerActive
	// Halted is set after a fatal failure.
	Halted
)

// Has reports if all provided flags are set.
func (f Flags) Has(flags Flags) bool {
	return f&flags == flags
}

// Snapshot is the state of the engine at the end of a render pass.
type Snapshot struct {
	Position float64
	BPM      float64
	Flags    Flags
	Marker   int
	Repeat   int
	Passes   uint64
}

// Board holds the latest snapshot. It has a single writer and any number
// of readers. The writer makes the sequence odd, stores the fields and
// makes it even again. Readers retry while the sequence is odd or changed
// during the read, so they never observe a torn snapshot.
//
// Every field is a 64-bit word: seq, position and bpm as float64 bits,
// flags, marker id, repeat index and the number of passes.
type Board struct {
	seq      atomic.Uint64
	position atomic.Uint64
	bpm      atomic.Uint64
	flags    atomic.Uint64
	marker   atomic.Uint64
	repeat   atomic.Uint64
	passes   atomic.Uint64
}

// Publish stores the snapshot. Must be called from one goroutine only.
func (b *Board) Publish(s Snapshot) {
	b.seq.Add(1)
	b.position.Store(math.Float64bits(s.Position))
	b.bpm.Store(math.Float64bits(s.BPM))
	b.flags.Store(uint64(s.Flags))
	b.marker.Store(uint64(int64(s.Marker)))
	b.repeat.Store(uint64(int64(s.Repeat)))
	b.passes.Store(s.Passes)
	b.seq.Add(1)
}

// Read returns the latest published snapshot.
func (b *Board) Read() Snapshot {
	for {
		seq := b.seq.Load()
		if seq&1 == 1 {
			runtime.Gosched()
			continue
		}
		s := Snapshot{
			Position: math.Float64frombits(b.position.Load()),
			BPM:      math.Float64frombits(b.bpm.Load()),
			Flags:    Flags(b.flags.Load()),
			Marker:   int(int64(b.marker.Load())),
			Repeat:   int(int64(b.repeat.Load())),
			Passes:   b.passes.Load(),
		}
		if b.seq.Load() == seq {
			return s
		}
	}
}

// Version returns the number of published snapshots.
func (b *Board) Version() uint64 {
	return b.seq.Load() / 2
}
