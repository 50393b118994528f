package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/log"
	"github.com/pipelined/engine/portaudio"
	"github.com/pipelined/engine/status"
)

func newPlayCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the timeline on the default audio device",
		Long: `Play the timeline until interrupted. Transport, marker and clip
notifications are printed while playing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(rootOpts, cmd)
		},
	}
}

func runPlay(opts *rootOptions, cmd *cobra.Command) error {
	c, err := opts.load()
	if err != nil {
		return err
	}
	l := opts.logger(cmd)
	n := status.NewNotifier(64)
	e, err := newEngine(c, engine.WithLogger(l), engine.WithNotifier(n))
	if err != nil {
		return err
	}
	entry := log.WithEngine(l, e.UID())

	d := portaudio.New(e, c.NumChannels(), c.QuantumOrDefault())
	if err := d.Start(); err != nil {
		return err
	}
	entry.Info("playing")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	w := cmd.OutOrStdout()
	for {
		select {
		case x := <-n.C():
			fmt.Fprintln(w, x)
		case err := <-d.Err():
			d.Close()
			return err
		case <-ctx.Done():
			entry.Infof("stopped at %.3f, %d notifications dropped", e.Status().Position, n.Dropped())
			return d.Close()
		}
	}
}
