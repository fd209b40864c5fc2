package logger

// NullLogger discards every entry. Handed to components under test where
// log output would only be noise.
type NullLogger struct{}

var _ Logger = (*NullLogger)(nil)

// NewNullLogger returns a Logger that drops everything written to it.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Info(_ string, _ map[string]interface{})  {}
func (l *NullLogger) Error(_ error, _ map[string]interface{})  {}
func (l *NullLogger) Fatal(_ error, _ map[string]interface{})  {}
func (l *NullLogger) Debug(_ string, _ map[string]interface{}) {}
func (l *NullLogger) SetLevel(_ Level)                         {}
