// Package track provides an audio unit that plays clips placed on the
// timeline.
package track

import (
	"math"
	"sort"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/ppqn"
	"github.com/pipelined/engine/signal"
	"github.com/pipelined/engine/status"
)

// Clip is a piece of audio that starts at the timeline position. Clip
// plays its data sample by sample, so its length in pulses depends on
// the tempo.
type Clip struct {
	ID       int
	Position float64
	Data     signal.Float64
}

// NotifyFunc delivers clip notifications. Engine.Notify can be used.
type NotifyFunc func(status.Notification)

// Track is a sequence of clips. Clips can overlap, overlapped samples are
// summed. Output is silent unless the transport plays.
type Track struct {
	mutable.Context
	name       string
	sampleRate float64
	notify     NotifyFunc
	clips      []clip
	output     signal.Float64
	// end of the last processed block.
	position float64
}

// clip is a clip with its playback state.
type clip struct {
	Clip
	playing bool
}

// New creates a new track with output of numChannels and quantum size.
// Notify can be nil.
func New(name string, sampleRate, numChannels, quantum int, notify NotifyFunc) *Track {
	return &Track{
		Context:    mutable.Mutable(),
		name:       name,
		sampleRate: float64(sampleRate),
		notify:     notify,
		output:     signal.EmptyFloat64(numChannels, quantum),
	}
}

// AddClip returns the mutation that adds the clip. Clip with the same id
// is replaced.
func (t *Track) AddClip(c Clip) mutable.Mutation {
	return t.Mutate(func() {
		t.addClip(c)
	})
}

// RemoveClip returns the mutation that removes the clip.
func (t *Track) RemoveClip(id int) mutable.Mutation {
	return t.Mutate(func() {
		t.removeClip(id, t.position)
	})
}

// Add inserts clips. Must be called before rendering or from the render
// goroutine.
func (t *Track) Add(clips ...Clip) {
	for _, c := range clips {
		t.addClip(c)
	}
}

// Clips returns clips ordered by position.
func (t *Track) Clips() []Clip {
	result := make([]Clip, 0, len(t.clips))
	for _, c := range t.clips {
		result = append(result, c.Clip)
	}
	return result
}

func (t *Track) addClip(c Clip) {
	t.removeClip(c.ID, t.position)
	i := sort.Search(len(t.clips), func(i int) bool {
		return t.clips[i].Position > c.Position
	})
	t.clips = append(t.clips, clip{})
	copy(t.clips[i+1:], t.clips[i:])
	t.clips[i] = clip{Clip: c}
}

func (t *Track) removeClip(id int, position float64) {
	for i := range t.clips {
		if t.clips[i].ID != id {
			continue
		}
		t.stop(&t.clips[i], position)
		t.clips = append(t.clips[:i], t.clips[i+1:]...)
		return
	}
}

// Process implements graph.Processor.
func (t *Track) Process(b block.Block) error {
	t.output.Clear(b.S0, b.S1)
	t.position = b.P1
	if !b.Flags.Has(block.Playing) || b.Flags.Has(block.Discontinuous) {
		t.stopAll(b.P0)
	}
	if !b.Flags.Has(block.Playing) {
		return nil
	}
	for i := range t.clips {
		t.render(&t.clips[i], b)
	}
	return nil
}

// render mixes the part of the clip that falls into the block.
func (t *Track) render(c *clip, b block.Block) {
	size := c.Data.Size()
	// clip sample played at the block start
	offset := int(math.Floor(ppqn.PulsesToSamples(b.P0-c.Position, b.BPM, t.sampleRate) + 1e-6))
	from := max(b.S0, b.S0-offset)
	to := min(b.S1, b.S0-offset+size)
	if from >= to {
		if offset >= size {
			t.stop(c, b.P0)
		}
		return
	}
	if !c.playing {
		c.playing = true
		t.post(status.ClipStarted, c.ID, b.P0+ppqn.SamplesToPulses(float64(from-b.S0), b.BPM, t.sampleRate))
	}
	for ch := range t.output {
		src := c.Data[min(ch, c.Data.NumChannels()-1)]
		dst := t.output[ch]
		for i := from; i < to; i++ {
			dst[i] += src[offset+i-b.S0]
		}
	}
	if to < b.S1 {
		t.stop(c, b.P0+ppqn.SamplesToPulses(float64(to-b.S0), b.BPM, t.sampleRate))
	}
}

func (t *Track) stop(c *clip, position float64) {
	if !c.playing {
		return
	}
	c.playing = false
	t.post(status.ClipStopped, c.ID, position)
}

func (t *Track) stopAll(position float64) {
	for i := range t.clips {
		t.stop(&t.clips[i], position)
	}
}

func (t *Track) post(kind status.Kind, id int, position float64) {
	if t.notify == nil {
		return
	}
	t.notify(status.Notification{
		Kind:     kind,
		ID:       id,
		Position: position,
	})
}

// Reset implements graph.Processor. Playing clips are stopped.
func (t *Track) Reset() {
	t.stopAll(t.position)
}

// Output implements graph.AudioUnit.
func (t *Track) Output() signal.Float64 {
	return t.output
}

func (t *Track) String() string {
	return t.name
}

// Tone returns a sine wave of the frequency with linear fade out.
func Tone(sampleRate, numChannels int, freq, gain, seconds float64) signal.Float64 {
	size := int(seconds * float64(sampleRate))
	data := signal.EmptyFloat64(numChannels, size)
	for i := 0; i < size; i++ {
		env := 1 - float64(i)/float64(size)
		v := gain * env * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		for ch := range data {
			data[ch][i] = v
		}
	}
	return data
}
