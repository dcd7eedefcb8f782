package world

import (
	"io"
	"os"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/sirupsen/logrus"
)

// initLog sets up the logger. With the log addon disabled the world still
// logs internally, to io.Discard.
func (w *World) initLog() error {
	logger := logrus.New()
	if !enabled(w.flags, addon.Log) {
		logger.SetOutput(io.Discard)
		w.logger = logger
		w.log = logger.WithField("component", "world")
		return nil
	}

	logger.SetLevel(w.opts.logLevel)
	if w.opts.logJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := w.opts.logOutput
	if w.opts.logFile != "" {
		f, err := os.OpenFile(w.opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w.onClose("log file", f.Close)
		out = f
	}
	logger.SetOutput(out)

	w.logger = logger
	w.log = logger.WithField("component", "world")
	return nil
}

// Log returns the world's log entry. Callers add their own fields.
func (w *World) Log() (*logrus.Entry, error) {
	if err := w.gate("Log", addon.Log); err != nil {
		return nil, err
	}
	return w.log, nil
}
