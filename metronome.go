package engine

import (
	"math"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/ppqn"
)

const (
	clickDuration = 0.02
	clickFreq     = 880.0
	accentFreq    = 1760.0
	clickGain     = 0.3
	accentGain    = 0.5
)

// metronome clicks on every quarter note with an accent on bar starts.
type metronome struct {
	sampleRate float64
	length     int
	buf        []float64
	size       int

	// state of the click in progress.
	elapsed int
	freq    float64
	gain    float64
}

func newMetronome(sampleRate, quantum int) *metronome {
	length := int(clickDuration * float64(sampleRate))
	return &metronome{
		sampleRate: float64(sampleRate),
		length:     length,
		buf:        make([]float64, quantum),
		elapsed:    length,
	}
}

// prepare makes room for the quantum.
func (m *metronome) prepare(quantum int) {
	if cap(m.buf) < quantum {
		m.buf = make([]float64, quantum)
	}
	m.buf = m.buf[:quantum]
	m.size = quantum
}

func (m *metronome) process(b block.Block) {
	s := b.S0
	if b.Flags.Has(block.Transporting) {
		for g := ppqn.QuantizeCeil(b.P0, ppqn.Quarter); g < b.P1; g += ppqn.Quarter {
			at := b.S0 + int(ppqn.PulsesToSamples(g-b.P0, b.BPM, m.sampleRate)+1e-6)
			if at >= b.S1 {
				break
			}
			m.render(s, at)
			m.start(math.Mod(g, ppqn.Bar) == 0)
			s = at
		}
	}
	m.render(s, b.S1)
}

func (m *metronome) start(accent bool) {
	m.elapsed = 0
	if accent {
		m.freq, m.gain = accentFreq, accentGain
	} else {
		m.freq, m.gain = clickFreq, clickGain
	}
}

func (m *metronome) render(from, to int) {
	for i := from; i < to; i++ {
		if m.elapsed >= m.length {
			m.buf[i] = 0
			continue
		}
		env := 1 - float64(m.elapsed)/float64(m.length)
		m.buf[i] = m.gain * env * math.Sin(2*math.Pi*m.freq*float64(m.elapsed)/m.sampleRate)
		m.elapsed++
	}
}

// mixInto adds the click to every channel.
func (m *metronome) mixInto(out [][]float64) {
	for _, channel := range out {
		for i := range channel {
			if i >= m.size {
				break
			}
			channel[i] += m.buf[i]
		}
	}
}
