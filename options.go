package engine

import (
	"fmt"

	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/status"
)

// Option provides a way to set functional parameters to engine.
type Option func(*Engine) error

// WithLogger sets logger to Engine. If this option is not provided, silent
// logger is used.
func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		e.log = logger
		return nil
	}
}

// WithSampleRate sets the sample rate.
func WithSampleRate(sampleRate int) Option {
	return func(e *Engine) error {
		if sampleRate <= 0 {
			return fmt.Errorf("%w: sample rate %d", ErrInvalidOption, sampleRate)
		}
		e.sampleRate = sampleRate
		return nil
	}
}

// WithQuantum sets the expected number of samples per render pass.
// Processors size their buffers with it, a larger request halts the engine
// with ErrOutputLayout.
func WithQuantum(quantum int) Option {
	return func(e *Engine) error {
		if quantum <= 0 {
			return fmt.Errorf("%w: quantum %d", ErrInvalidOption, quantum)
		}
		e.quantum = quantum
		return nil
	}
}

// WithTempo sets the initial tempo.
func WithTempo(bpm float64) Option {
	return func(e *Engine) error {
		if bpm <= 0 {
			return fmt.Errorf("%w: tempo %v", ErrInvalidOption, bpm)
		}
		e.bpm = bpm
		return nil
	}
}

// WithPauseOnLoopDisabled stops the transport at the end of disabled loop.
func WithPauseOnLoopDisabled() Option {
	return func(e *Engine) error {
		e.pauseOnLoop = true
		return nil
	}
}

// WithMetronome enables the metronome.
func WithMetronome() Option {
	return func(e *Engine) error {
		e.clock.SetMetronomeEnabled(true)
		return nil
	}
}

// WithStatus sets the board the engine publishes snapshots to.
func WithStatus(board *status.Board) Option {
	return func(e *Engine) error {
		e.board = board
		return nil
	}
}

// WithNotifier sets the notifier for marker, transport, clip and failure
// notifications.
func WithNotifier(n *status.Notifier) Option {
	return func(e *Engine) error {
		e.notifier = n
		return nil
	}
}

// WithMetric enables expvar metrics for the engine.
func WithMetric() Option {
	return func(e *Engine) error {
		e.metered = true
		return nil
	}
}

// WithQueueSize sets the number of mutations that can be pending.
func WithQueueSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			return fmt.Errorf("%w: queue size %d", ErrInvalidOption, size)
		}
		e.queueSize = size
		return nil
	}
}

// WithMix sets the primary unit for the mixed output.
func WithMix(primary graph.AudioUnit) Option {
	return func(e *Engine) error {
		e.setMix(primary)
		return nil
	}
}

// WithStems sets the output to stems of provided units.
func WithStems(units ...graph.AudioUnit) Option {
	return func(e *Engine) error {
		e.setStems(units)
		return nil
	}
}
