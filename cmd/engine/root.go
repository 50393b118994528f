package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipelined/engine"
	"github.com/pipelined/engine/config"
	"github.com/pipelined/engine/log"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Config  string
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Block scheduling audio engine",
		Long: `Render a timeline with loop, markers, tempo automation and tone clips.

The timeline is described by a YAML config file. Without config the
engine renders an empty timeline with default settings.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newScheduleCommand(opts))
	cmd.AddCommand(newRenderCommand(opts))
	cmd.AddCommand(newPlayCommand(opts))
	return cmd
}

// load reads the config file if provided.
func (o *rootOptions) load() (*config.Config, error) {
	if o.Config == "" {
		return &config.Config{}, nil
	}
	return config.Load(o.Config)
}

func (o *rootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	l := log.GetLogger()
	l.SetOutput(cmd.ErrOrStderr())
	if o.Verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// newEngine creates the engine with the config applied and the transport
// started.
func newEngine(c *config.Config, options ...engine.Option) (*engine.Engine, error) {
	e, err := engine.New(append(c.Options(), options...)...)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(e); err != nil {
		return nil, err
	}
	if err := e.Push(e.Play()); err != nil {
		return nil, err
	}
	return e, nil
}
