package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance
var Log = logrus.New()

// Init configures the global logger: JSON in production and staging, text elsewhere.
// An invalid level falls back to info.
func Init(level, environment string) *logrus.Logger {
	return configure(Log, os.Stdout, level, environment)
}

func configure(l *logrus.Logger, out io.Writer, level, environment string) *logrus.Logger {
	l.SetOutput(out)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		l.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", level, err)
	} else {
		l.SetLevel(parsed)
	}

	switch strings.ToLower(environment) {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00", // ISO8601
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l.Debugf("Log level set to %s for environment %s", l.GetLevel(), environment)
	return l
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
