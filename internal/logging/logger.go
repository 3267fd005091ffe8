// Package logging is the structured logging facade used across ekstre-csv.
// Components depend on the Logger interface; the binary wires a logrus backed
// implementation and tests use MockLogger.
package logging

// Logger is the structured logger every component receives through its
// constructor.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a child logger carrying err on every entry.
	WithError(err error) Logger

	// WithField returns a child logger carrying one extra field.
	WithField(key string, value interface{}) Logger

	// WithFields returns a child logger carrying the given fields.
	WithFields(fields ...Field) Logger

	// Fatal logs and terminates the process.
	Fatal(msg string, fields ...Field)

	// Fatalf logs a formatted message and terminates the process.
	Fatalf(msg string, args ...interface{})
}

// Field is a single key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
