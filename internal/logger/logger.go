// Package logger defines the structured logging contract used across the
// service, with a zerolog-backed implementation and a null one for tests.
package logger

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging surface components depend on. Fatal stops the
// process after writing the entry.
type Logger interface {
	Info(message string, properties map[string]interface{})
	Error(err error, properties map[string]interface{})
	Fatal(err error, properties map[string]interface{})
	Debug(message string, properties map[string]interface{})
	SetLevel(level Level)
}

// Level selects the minimum severity a logger emits.
type Level int8

const (
	LevelInfo Level = iota
	LevelError
	LevelFatal
	LevelOff
	LevelDebug
)

// String returns the level name as written in log output. LevelOff has no
// name; it silences the logger rather than labeling entries.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelDebug:
		return "DEBUG"
	default:
		return ""
	}
}
