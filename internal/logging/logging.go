package logging

import (
	"io"

	logger "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logrus logger
func Setup(level, format string, out io.Writer) error {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logger.JSONFormatter{})
	} else {
		logger.SetFormatter(&logger.TextFormatter{FullTimestamp: true})
	}

	if out != nil {
		logger.SetOutput(out)
	}
	return nil
}
