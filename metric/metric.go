// Package metric exposes render performance counters with expvar.
package metric

import (
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipelined/engine/signal"
)

const enginesLabel = "engine"

const (
	// PassCounter measures number of render passes.
	PassCounter = "Passes"
	// BlockCounter measures number of processed blocks.
	BlockCounter = "Blocks"
	// SampleCounter measures number of rendered samples.
	SampleCounter = "Samples"
	// LatencyCounter is the duration of the last render pass.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of rendered signal.
	DurationCounter = "Duration"
	// OverrunCounter counts passes that took longer than the duration of
	// the audio they rendered.
	OverrunCounter = "Overruns"
)

var (
	engines = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		PassCounter,
		BlockCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		OverrunCounter,
	}
)

// Get metrics values for provided engine id.
func Get(id string) map[string]string {
	return getCounters(id)
}

// GetAll returns counters for all measured engines.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	engines.Lock()
	defer engines.Unlock()
	for id := range engines.m {
		m[id] = getCounters(id)
	}
	return m
}

func getCounters(id string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(id, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// MeasureFunc captures metrics when a render pass is over.
type MeasureFunc func(blocks, samples int, elapsed time.Duration)

// Meter creates new meter closure to capture engine counters. Meters with
// the same id share counters.
func Meter(id string, sampleRate int) MeasureFunc {
	metric := engines.get(id)
	var (
		quantum int
		budget  time.Duration
	)
	return func(blocks, samples int, elapsed time.Duration) {
		metric.passes.Add(1)
		metric.blocks.Add(int64(blocks))
		metric.samples.Add(int64(samples))
		metric.latency.set(elapsed)
		// recalculate pass duration only when quantum has changed
		if quantum != samples {
			quantum = samples
			budget = signal.DurationOf(sampleRate, int64(samples))
		}
		metric.duration.add(budget)
		if elapsed > budget {
			metric.overruns.Add(1)
		}
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(id string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[id]; ok {
		return metric
	}
	metric := newMetric(id)
	m.m[id] = metric
	return metric
}

type metric struct {
	passes   *expvar.Int
	blocks   *expvar.Int
	samples  *expvar.Int
	overruns *expvar.Int
	latency  *duration
	duration *duration
}

func newMetric(id string) metric {
	m := metric{
		passes:   expvar.NewInt(key(id, PassCounter)),
		blocks:   expvar.NewInt(key(id, BlockCounter)),
		samples:  expvar.NewInt(key(id, SampleCounter)),
		overruns: expvar.NewInt(key(id, OverrunCounter)),
		latency:  &duration{},
		duration: &duration{},
	}
	expvar.Publish(key(id, LatencyCounter), m.latency)
	expvar.Publish(key(id, DurationCounter), m.duration)
	return m
}

func key(id, counter string) string {
	return fmt.Sprintf("%s.%s.%s", enginesLabel, id, counter)
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
