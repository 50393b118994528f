package engine

import (
	"fmt"

	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/signal"
)

// OutputMode defines how the output buffer is assembled.
type OutputMode int

const (
	// OutputMix copies the primary unit output and mixes in the metronome.
	OutputMix OutputMode = iota
	// OutputStems copies every stem unit into its own stereo pair of
	// output channels. The metronome isn't rendered.
	OutputStems
)

func (m OutputMode) String() string {
	switch m {
	case OutputMix:
		return "mix"
	case OutputStems:
		return "stems"
	}
	return fmt.Sprintf("output(%d)", int(m))
}

// SetMix switches the output to the mix of the primary unit. Nil primary
// renders only the metronome.
func (e *Engine) SetMix(primary graph.AudioUnit) mutable.Mutation {
	return e.Mutate(func() {
		e.setMix(primary)
	})
}

// SetStems switches the output to stems.
func (e *Engine) SetStems(units ...graph.AudioUnit) mutable.Mutation {
	return e.Mutate(func() {
		e.setStems(units)
	})
}

func (e *Engine) setMix(primary graph.AudioUnit) {
	e.mode = OutputMix
	e.primary = primary
	e.stems = nil
	if primary != nil {
		e.graph.AddVertex(primary)
	}
}

func (e *Engine) setStems(units []graph.AudioUnit) {
	e.mode = OutputStems
	e.primary = nil
	e.stems = units
	for _, u := range units {
		e.graph.AddVertex(u)
	}
}

func (e *Engine) checkOutput(out signal.Float64) error {
	quantum := out.Size()
	for i := range out {
		if len(out[i]) != quantum {
			return fmt.Errorf("%w: channel %d has %d samples instead of %d", ErrOutputLayout, i, len(out[i]), quantum)
		}
	}
	if e.mode == OutputStems {
		if out.NumChannels() != 2*len(e.stems) {
			return fmt.Errorf("%w: %d channels for %d stems", ErrOutputLayout, out.NumChannels(), len(e.stems))
		}
		for _, u := range e.stems {
			if err := checkUnit(u, 2, quantum); err != nil {
				return err
			}
		}
		return nil
	}
	if e.primary != nil {
		return checkUnit(e.primary, 1, quantum)
	}
	return nil
}

func checkUnit(u graph.AudioUnit, channels, quantum int) error {
	output := u.Output()
	for i := range output {
		if len(output[i]) < quantum {
			return fmt.Errorf("%w: %s channel %d has %d samples, need %d", ErrOutputLayout, graph.Name(u), i, len(output[i]), quantum)
		}
	}
	if output.NumChannels() < channels {
		return fmt.Errorf("%w: %s has %d channels, need %d", ErrOutputLayout, graph.Name(u), output.NumChannels(), channels)
	}
	return nil
}

func (e *Engine) assemble(out signal.Float64, click bool) {
	out.ClearAll()
	if e.mode == OutputStems {
		for i, u := range e.stems {
			out.CopyChannels(2*i, u.Output()[:2])
		}
		return
	}
	if e.primary != nil {
		out.CopyChannels(0, e.primary.Output())
	}
	if click {
		e.metronome.mixInto(out)
	}
}
