package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// ZeroLogger is a zerolog-backed Logger. Each instance owns its own
// zerolog.Logger, so two components can log at different levels to
// different writers.
type ZeroLogger struct {
	writer        io.Writer
	level         Level
	defaultFields Fields
	zl            zerolog.Logger
}

// NewZeroLogger returns a configured instance of ZeroLogger.
func NewZeroLogger(writer io.Writer, level Level, defaultFields Fields) *ZeroLogger {
	if defaultFields == nil {
		defaultFields = Fields{}
	}
	zeroLogger := ZeroLogger{writer: writer, level: level, defaultFields: defaultFields}
	zeroLogger.configure()
	return &zeroLogger
}

func (l *ZeroLogger) configure() {
	var zLevel zerolog.Level
	switch l.level {
	case LevelDebug:
		zLevel = zerolog.DebugLevel
	case LevelInfo:
		zLevel = zerolog.InfoLevel
	case LevelError:
		zLevel = zerolog.ErrorLevel
	case LevelFatal:
		zLevel = zerolog.FatalLevel
	case LevelOff:
		zLevel = zerolog.Disabled
	default:
		zLevel = zerolog.InfoLevel
	}

	props := make(map[string]interface{}, len(l.defaultFields))
	for k, v := range l.defaultFields {
		props[k] = v
	}

	l.zl = zerolog.New(l.writer).With().Fields(props).Timestamp().Logger().Level(zLevel)
}

// Info logs a message at info level.
func (l *ZeroLogger) Info(message string, properties map[string]interface{}) {
	l.zl.Info().Fields(properties).Msg(message)
}

// Error reports an error at error level.
func (l *ZeroLogger) Error(err error, properties map[string]interface{}) {
	l.zl.Error().Fields(properties).Err(err).Msg(err.Error())
}

// Fatal writes the log entry and stops the process.
func (l *ZeroLogger) Fatal(err error, properties map[string]interface{}) {
	l.zl.Fatal().Fields(properties).Err(err).Msg(err.Error())
}

// Debug logs a message at debug level.
func (l *ZeroLogger) Debug(message string, properties map[string]interface{}) {
	l.zl.Debug().Fields(properties).Msg(message)
}

// SetLevel reconfigures the logger with a new minimum level.
func (l *ZeroLogger) SetLevel(level Level) {
	l.level = level
	l.configure()
}
