// Package log provides loggers for engines and commands.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("ENGINE_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance. Debug level is enabled with
// ENGINE_DEBUG environment variable.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// WithEngine returns a logger entry tagged with the engine id.
func WithEngine(l *logrus.Logger, id string) *logrus.Entry {
	return l.WithField("engine", id)
}
