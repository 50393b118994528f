package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/ppqn"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		state    State
		command  command
		expected State
		err      error
	}{
		{state: Stopped, command: playCommand, expected: Playing},
		{state: Stopped, command: recordCommand, expected: CountingIn},
		{state: Stopped, command: stopCommand, expected: Stopped, err: ErrInvalidState},
		{state: Stopped, command: recordStartCommand, expected: Stopped, err: ErrInvalidState},
		{state: Playing, command: stopCommand, expected: Stopped},
		{state: Playing, command: playCommand, expected: Playing, err: ErrInvalidState},
		{state: Playing, command: recordCommand, expected: Playing, err: ErrInvalidState},
		{state: CountingIn, command: recordStartCommand, expected: Recording},
		{state: CountingIn, command: stopCommand, expected: Stopped},
		{state: CountingIn, command: playCommand, expected: CountingIn, err: ErrInvalidState},
		{state: Recording, command: stopCommand, expected: Stopped},
		{state: Recording, command: recordStartCommand, expected: Recording, err: ErrInvalidState},
	}
	for _, test := range tests {
		t.Run(test.state.String()+" "+test.command.String(), func(t *testing.T) {
			next, err := test.state.transition(test.command)
			assert.Equal(t, test.expected, next)
			if test.err != nil {
				assert.True(t, errors.Is(err, test.err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetronomeClicks(t *testing.T) {
	m := newMetronome(48000, 512)
	m.prepare(512)
	// second half of a quarter at 120 bpm, next quarter is a bar start
	m.process(blockAt(3840-10, 512))
	// 10 pulses are 250 samples
	for i := 0; i < 250; i++ {
		assert.Equal(t, 0.0, m.buf[i])
	}
	assert.Equal(t, 0.0, m.buf[250])
	assert.NotEqual(t, 0.0, m.buf[251])
	assert.Equal(t, accentFreq, m.freq)

	m.process(blockAt(960, 512))
	assert.Equal(t, clickFreq, m.freq)
}

func blockAt(position float64, quantum int) block.Block {
	return block.Block{
		P0:    position,
		P1:    position + ppqn.SamplesToPulses(float64(quantum), 120, 48000),
		S1:    quantum,
		BPM:   120,
		Flags: block.Transporting | block.Playing,
	}
}
