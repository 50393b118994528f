package main

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/log"
	"github.com/pipelined/engine/metric"
	"github.com/pipelined/engine/run"
	"github.com/pipelined/engine/status"
)

func newRenderCommand(rootOpts *rootOptions) *cobra.Command {
	var quanta int
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the timeline offline",
		Long: `Render quanta without an audio device and print the level of the
result, the final transport status and performance counters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, quanta, cmd)
		},
	}
	cmd.Flags().IntVarP(&quanta, "quanta", "n", 100, "number of quanta to render")
	return cmd
}

func runRender(opts *rootOptions, quanta int, cmd *cobra.Command) error {
	c, err := opts.load()
	if err != nil {
		return err
	}
	l := opts.logger(cmd)
	e, err := newEngine(c, engine.WithLogger(l), engine.WithMetric())
	if err != nil {
		return err
	}
	log.WithEngine(l, e.UID()).Debugf("rendering %d quanta", quanta)

	buf, err := run.Bounce(cmd.Context(), e, c.NumChannels(), c.QuantumOrDefault(), quanta)
	if err != nil {
		return err
	}
	var peak, sum float64
	for _, v := range buf.Data {
		peak = math.Max(peak, math.Abs(v))
		sum += v * v
	}
	rms := 0.0
	if len(buf.Data) > 0 {
		rms = math.Sqrt(sum / float64(len(buf.Data)))
	}

	w := cmd.OutOrStdout()
	s := e.Status()
	fmt.Fprintf(w, "frames: %d\n", buf.NumFrames())
	fmt.Fprintf(w, "peak: %.4f\n", peak)
	fmt.Fprintf(w, "rms: %.4f\n", rms)
	fmt.Fprintf(w, "position: %.3f\n", s.Position)
	fmt.Fprintf(w, "bpm: %.2f\n", s.BPM)
	if s.Flags.Has(status.MarkerActive) {
		fmt.Fprintf(w, "marker: %d repeat %d\n", s.Marker, s.Repeat)
	}
	counters := metric.Get(e.UID())
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s: %s\n", name, counters[name])
	}
	return nil
}
