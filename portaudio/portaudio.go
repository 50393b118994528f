// Package portaudio plays the engine output on the default audio device.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/engine/signal"
)

// Engine renders quanta. It's implemented by *engine.Engine.
type Engine interface {
	Render(signal.Float64) error
	SampleRate() int
}

// Driver calls the engine from the audio callback of the default output
// stream. After the engine failed, the driver outputs silence.
type Driver struct {
	engine      Engine
	numChannels int
	quantum     int
	buf         signal.Float64
	view        signal.Float64
	stream      *portaudio.Stream
	errc        chan error
	failed      bool
}

// New returns a driver for numChannels output with quantum frames per
// callback.
func New(e Engine, numChannels, quantum int) *Driver {
	return &Driver{
		engine:      e,
		numChannels: numChannels,
		quantum:     quantum,
		buf:         signal.EmptyFloat64(numChannels, quantum),
		view:        make(signal.Float64, numChannels),
		errc:        make(chan error, 1),
	}
}

// Start initializes portaudio and starts the stream.
func (d *Driver) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("error initializing portaudio: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(0, d.numChannels, float64(d.engine.SampleRate()), d.quantum, d.process)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("error opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("error starting stream: %w", err)
	}
	d.stream = stream
	return nil
}

// Err returns a channel that receives the first render failure.
func (d *Driver) Err() <-chan error {
	return d.errc
}

// Close stops the stream and terminates portaudio.
func (d *Driver) Close() error {
	if d.stream == nil {
		return nil
	}
	defer func() {
		d.stream = nil
	}()
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("error stopping stream: %w", err)
	}
	if err := d.stream.Close(); err != nil {
		return fmt.Errorf("error closing stream: %w", err)
	}
	return portaudio.Terminate()
}

// process is the audio callback.
func (d *Driver) process(out [][]float32) {
	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	}
	if frames > d.quantum {
		d.fail(fmt.Errorf("callback requested %d frames, quantum is %d", frames, d.quantum))
		signal.Float64(nil).CopyToFloat32(out)
		return
	}
	for i := range d.view {
		d.view[i] = d.buf[i][:frames]
	}
	if err := d.engine.Render(d.view); err != nil {
		d.fail(err)
	}
	d.view.CopyToFloat32(out)
}

func (d *Driver) fail(err error) {
	if d.failed {
		return
	}
	d.failed = true
	select {
	case d.errc <- err:
	default:
	}
}
