package log

import (
	"strings"

	"github.com/tryfix/log"
)

type Logger struct {
	logEnabled bool
	log.Logger
}

// NewLogger returns a logger which drops Error, Warn, Info, Debug and Trace
// entries when logEnabled is false. Fatal is always written.
func NewLogger(logEnabled bool, level string) *Logger {
	if level == `` {
		level = `INFO`
	}

	return &Logger{
		logEnabled: logEnabled,
		Logger: log.Constructor.Log(
			log.WithColors(true),
			log.WithLevel(log.Level(strings.ToUpper(level))),
			log.WithFilePath(true),
			log.WithSkipFrameCount(4),
		),
	}
}

func (l *Logger) Error(message interface{}, params ...interface{}) {
	if l.logEnabled {
		l.Logger.Error(message, params...)
	}
}

func (l *Logger) Warn(message interface{}, params ...interface{}) {
	if l.logEnabled {
		l.Logger.Warn(message, params...)
	}
}

func (l *Logger) Info(message interface{}, params ...interface{}) {
	if l.logEnabled {
		l.Logger.Info(message, params...)
	}
}

func (l *Logger) Debug(message interface{}, params ...interface{}) {
	if l.logEnabled {
		l.Logger.Debug(message, params...)
	}
}

func (l *Logger) Trace(message interface{}, params ...interface{}) {
	if l.logEnabled {
		l.Logger.Trace(message, params...)
	}
}
