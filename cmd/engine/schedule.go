package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/block"
	"github.com/pipelined/engine/signal"
)

func newScheduleCommand(rootOpts *rootOptions) *cobra.Command {
	var passes int
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print blocks of render passes",
		Long: `Render passes and print every block: its index, sample range, timeline
range, tempo and flags. Flags are T (transporting), D (discontinuous),
P (playing) and B (tempo changed).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(rootOpts, passes, cmd)
		},
	}
	cmd.Flags().IntVarP(&passes, "passes", "n", 4, "number of render passes")
	return cmd
}

func runSchedule(opts *rootOptions, passes int, cmd *cobra.Command) error {
	c, err := opts.load()
	if err != nil {
		return err
	}
	e, err := newEngine(c, engine.WithLogger(opts.logger(cmd)))
	if err != nil {
		return err
	}
	p := &printer{w: cmd.OutOrStdout()}
	e.Register(p)

	out := signal.EmptyFloat64(c.NumChannels(), c.QuantumOrDefault())
	for i := 1; i <= passes; i++ {
		fmt.Fprintf(p.w, "pass %d\n", i)
		if err := e.Render(out); err != nil {
			return err
		}
	}
	return nil
}

// printer prints every processed block.
type printer struct {
	w io.Writer
}

func (p *printer) Process(b block.Block) error {
	_, err := fmt.Fprintln(p.w, b)
	return err
}

func (p *printer) Reset() {}

func (p *printer) String() string {
	return "printer"
}
