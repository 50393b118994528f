// Package config loads engine and timeline configuration from YAML.
//
//	sample_rate: 48000
//	quantum: 512
//	bpm: 120
//	metronome: true
//	loop: {from: 0, to: 15360, enabled: true}
//	markers:
//	  - {id: 1, position: 0, plays: 2}
//	tempo:
//	  - {position: 0, bpm: 120}
//	  - {position: 7680, bpm: 90, interpolation: linear}
//	output: mix
//	tracks:
//	  - name: bass
//	    clips:
//	      - {id: 1, position: 0, frequency: 110, gain: 0.3, duration: 0.5}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/graph"
	"github.com/pipelined/engine/mixer"
	"github.com/pipelined/engine/mutable"
	"github.com/pipelined/engine/timeline"
	"github.com/pipelined/engine/track"
)

// ErrInvalid is returned when configuration values are inconsistent.
var ErrInvalid = errors.New("invalid config")

// Output modes.
const (
	Mix   = "mix"
	Stems = "stems"
)

// Interpolation names.
const (
	Step   = "step"
	Linear = "linear"
)

type (
	// Config describes the engine, the timeline and tracks. Zero values
	// mean engine defaults.
	Config struct {
		SampleRate          int          `yaml:"sample_rate"`
		Quantum             int          `yaml:"quantum"`
		BPM                 float64      `yaml:"bpm"`
		Metronome           bool         `yaml:"metronome"`
		PauseOnLoopDisabled bool         `yaml:"pause_on_loop_disabled"`
		Loop                *Loop        `yaml:"loop,omitempty"`
		Markers             []Marker     `yaml:"markers,omitempty"`
		Tempo               []TempoPoint `yaml:"tempo,omitempty"`
		// Output is either mix or stems. Every track is a stem.
		Output string  `yaml:"output"`
		Tracks []Track `yaml:"tracks,omitempty"`
	}

	// Loop is the loop area in pulses.
	Loop struct {
		From    float64 `yaml:"from"`
		To      float64 `yaml:"to"`
		Enabled bool    `yaml:"enabled"`
	}

	// Marker starts a section that plays Plays times, zero is forever.
	Marker struct {
		ID       int     `yaml:"id"`
		Position float64 `yaml:"position"`
		Plays    int     `yaml:"plays"`
	}

	// TempoPoint is a tempo automation point.
	TempoPoint struct {
		Position      float64 `yaml:"position"`
		BPM           float64 `yaml:"bpm"`
		Interpolation string  `yaml:"interpolation,omitempty"`
	}

	// Track is a stereo track of tone clips.
	Track struct {
		Name  string `yaml:"name"`
		Clips []Clip `yaml:"clips"`
	}

	// Clip is a sine tone placed on the timeline. Duration is in seconds.
	Clip struct {
		ID        int     `yaml:"id"`
		Position  float64 `yaml:"position"`
		Frequency float64 `yaml:"frequency"`
		Gain      float64 `yaml:"gain"`
		Duration  float64 `yaml:"duration"`
	}
)

// Load reads and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates the configuration. Unknown fields are
// rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.SampleRate < 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalid, c.SampleRate)
	}
	if c.Quantum < 0 {
		return fmt.Errorf("%w: quantum %d", ErrInvalid, c.Quantum)
	}
	if c.BPM < 0 {
		return fmt.Errorf("%w: bpm %v", ErrInvalid, c.BPM)
	}
	if c.Loop != nil && c.Loop.To <= c.Loop.From {
		return fmt.Errorf("%w: loop ends at %v before start %v", ErrInvalid, c.Loop.To, c.Loop.From)
	}
	ids := make(map[int]struct{}, len(c.Markers))
	for i, m := range c.Markers {
		if _, ok := ids[m.ID]; ok {
			return fmt.Errorf("%w: markers[%d]: duplicate id %d", ErrInvalid, i, m.ID)
		}
		ids[m.ID] = struct{}{}
		if m.Plays < 0 {
			return fmt.Errorf("%w: markers[%d]: plays %d", ErrInvalid, i, m.Plays)
		}
	}
	for i, p := range c.Tempo {
		if p.BPM <= 0 {
			return fmt.Errorf("%w: tempo[%d]: bpm %v", ErrInvalid, i, p.BPM)
		}
		if _, err := interpolation(p.Interpolation); err != nil {
			return fmt.Errorf("tempo[%d]: %w", i, err)
		}
	}
	switch c.Output {
	case "", Mix:
	case Stems:
		if len(c.Tracks) == 0 {
			return fmt.Errorf("%w: stems output without tracks", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown output %q", ErrInvalid, c.Output)
	}
	for i, t := range c.Tracks {
		for j, clip := range t.Clips {
			if clip.Frequency <= 0 || clip.Duration <= 0 {
				return fmt.Errorf("%w: tracks[%d].clips[%d]: frequency %v duration %v", ErrInvalid, i, j, clip.Frequency, clip.Duration)
			}
		}
	}
	return nil
}

// Options returns engine options defined by the configuration.
func (c *Config) Options() []engine.Option {
	var options []engine.Option
	if c.SampleRate > 0 {
		options = append(options, engine.WithSampleRate(c.SampleRate))
	}
	if c.Quantum > 0 {
		options = append(options, engine.WithQuantum(c.Quantum))
	}
	if c.BPM > 0 {
		options = append(options, engine.WithTempo(c.BPM))
	}
	if c.Metronome {
		options = append(options, engine.WithMetronome())
	}
	if c.PauseOnLoopDisabled {
		options = append(options, engine.WithPauseOnLoopDisabled())
	}
	return options
}

// NumChannels returns the number of output channels.
func (c *Config) NumChannels() int {
	if c.Output == Stems {
		return 2 * len(c.Tracks)
	}
	return 2
}

// QuantumOrDefault returns the configured quantum or the engine default.
func (c *Config) QuantumOrDefault() int {
	if c.Quantum > 0 {
		return c.Quantum
	}
	return engine.DefaultQuantum
}

// Apply creates tracks and pushes the timeline to the engine. Must be
// called before rendering is started.
func (c *Config) Apply(e *engine.Engine) error {
	quantum := c.QuantumOrDefault()
	units := make([]graph.AudioUnit, 0, len(c.Tracks))
	for i, t := range c.Tracks {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("track %d", i+1)
		}
		tr := track.New(name, e.SampleRate(), 2, quantum, e.Notify)
		for _, clip := range t.Clips {
			tr.Add(track.Clip{
				ID:       clip.ID,
				Position: clip.Position,
				Data:     track.Tone(e.SampleRate(), 1, clip.Frequency, clip.Gain, clip.Duration),
			})
		}
		e.Register(tr)
		units = append(units, tr)
	}

	mutations := []mutable.Mutation{e.SetMarkers(c.markers()...), e.SetTempo(c.tempo()...)}
	if c.Loop != nil {
		mutations = append(mutations, e.SetLoop(timeline.LoopArea{
			From:    c.Loop.From,
			To:      c.Loop.To,
			Enabled: c.Loop.Enabled,
		}))
	}
	switch {
	case c.Output == Stems:
		mutations = append(mutations, e.SetStems(units...))
	case len(units) > 0:
		mutations = append(mutations, e.SetMix(mixer.New("mix", 2, quantum, units...)))
	}
	return e.Push(mutations...)
}

func (c *Config) markers() []timeline.Marker {
	markers := make([]timeline.Marker, 0, len(c.Markers))
	for _, m := range c.Markers {
		markers = append(markers, timeline.Marker{
			ID:       m.ID,
			Position: m.Position,
			Plays:    m.Plays,
		})
	}
	return markers
}

func (c *Config) tempo() []timeline.TempoPoint {
	points := make([]timeline.TempoPoint, 0, len(c.Tempo))
	for _, p := range c.Tempo {
		// validated
		i, _ := interpolation(p.Interpolation)
		points = append(points, timeline.TempoPoint{
			Position:      p.Position,
			BPM:           p.BPM,
			Interpolation: i,
		})
	}
	return points
}

func interpolation(name string) (timeline.Interpolation, error) {
	switch name {
	case "", Step:
		return timeline.Step, nil
	case Linear:
		return timeline.Linear, nil
	}
	return timeline.Step, fmt.Errorf("%w: unknown interpolation %q", ErrInvalid, name)
}
