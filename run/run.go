// Package run drives the engine without an audio device.
package run

import (
	"context"
	"fmt"
	"io"

	"github.com/go-audio/audio"

	"github.com/pipelined/engine/signal"
)

type (
	// Engine renders quanta. It's implemented by *engine.Engine.
	Engine interface {
		Render(signal.Float64) error
		SampleRate() int
	}

	// SinkFunc consumes a rendered quantum. The buffer is reused for the
	// next quantum. Returning io.EOF finishes the run without error.
	SinkFunc func(signal.Float64) error

	// Run renders quanta in its own goroutine.
	Run struct {
		cancelFn  context.CancelFunc
		errorChan chan error
	}
)

// New starts rendering quanta of numChannels and quantum size into the
// sink. Rendering continues until the context is done, the sink returns
// an error or the engine fails.
func New(ctx context.Context, e Engine, numChannels, quantum int, sink SinkFunc) *Run {
	ctx, cancelFn := context.WithCancel(ctx)
	r := Run{
		cancelFn:  cancelFn,
		errorChan: make(chan error, 1),
	}
	go r.run(ctx, e, signal.EmptyFloat64(numChannels, quantum), sink)
	return &r
}

func (r *Run) run(ctx context.Context, e Engine, buf signal.Float64, sink SinkFunc) {
	defer close(r.errorChan)
	defer r.cancelFn()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := e.Render(buf); err != nil {
			r.errorChan <- fmt.Errorf("error rendering quantum: %w", err)
			return
		}
		if err := sink(buf); err != nil {
			if err != io.EOF {
				r.errorChan <- fmt.Errorf("error sinking quantum: %w", err)
			}
			return
		}
	}
}

// Cancel stops the rendering. Wait should be called to make sure the
// goroutine is done.
func (r *Run) Cancel() {
	r.cancelFn()
}

// Wait for successful finish or first error to occur.
func (r *Run) Wait() error {
	for err := range r.errorChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Bounce renders quanta offline and returns interleaved result.
func Bounce(ctx context.Context, e Engine, numChannels, quantum, quanta int) (*audio.FloatBuffer, error) {
	result := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  e.SampleRate(),
		},
	}
	if quanta <= 0 {
		return result, nil
	}
	result.Data = make([]float64, 0, numChannels*quantum*quanta)
	rendered := 0
	r := New(ctx, e, numChannels, quantum, func(s signal.Float64) error {
		s.AppendTo(result)
		rendered++
		if rendered == quanta {
			return io.EOF
		}
		return nil
	})
	if err := r.Wait(); err != nil {
		return result, err
	}
	if rendered < quanta {
		return result, fmt.Errorf("bounce interrupted after %d quanta: %w", rendered, ctx.Err())
	}
	return result, nil
}
