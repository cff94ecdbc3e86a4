package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process-wide JSON logger. An unknown level falls
// back to info; when filePath is set the log is appended there instead of
// stdout.
func NewLogger(level, filePath string) (*logrus.Logger, error) {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{})

	var out io.Writer = os.Stdout
	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}
	logger.SetOutput(out)
	return logger, nil
}
