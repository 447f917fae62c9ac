package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func SetupLogging() *logrus.Logger {
	logger := logrus.Logger{
		Formatter: &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyLevel: "loglevel",
			},
		},
		Out:      os.Stdout,
		Hooks:    make(logrus.LevelHooks),
		Level:    logrus.InfoLevel,
		ExitFunc: os.Exit,
	}

	return &logger
}

// SetLevel applies a textual level such as "debug" or "warn".
func SetLevel(logger *logrus.Logger, level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(parsed)
	return nil
}
