package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger: JSON output, level from LOG_LEVEL
// (defaults to info).
func New() *logrus.Logger {
	logg := logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logg.SetLevel(level)

	return logg
}

// LogError records a failure with its module/function context.
func LogError(logger *logrus.Logger, moduleName, funcName string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
