package logging

import (
	"fmt"
	"sync"
)

// MockLogger records entries in memory so tests can assert on what was
// logged. Child loggers created with WithField/WithFields/WithError write to
// the same recorder as their parent. Safe for concurrent use.
type MockLogger struct {
	rec    *recorder
	fields []Field
	err    error
}

// LogEntry is one captured log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

type recorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMockLogger returns an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{rec: &recorder{}}
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	if m.rec == nil {
		m.rec = &recorder{}
	}
	all := make([]Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.entries = append(m.rec.entries, LogEntry{Level: level, Message: msg, Fields: all, Error: m.err})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("DEBUG", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("INFO", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("WARN", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("ERROR", msg, fields) }

// Fatal records a FATAL entry. It does not exit.
func (m *MockLogger) Fatal(msg string, fields ...Field) { m.record("FATAL", msg, fields) }

// Fatalf records a formatted FATAL entry. It does not exit.
func (m *MockLogger) Fatalf(msg string, args ...interface{}) {
	m.record("FATAL", fmt.Sprintf(msg, args...), nil)
}

func (m *MockLogger) child(fields []Field, err error) *MockLogger {
	if m.rec == nil {
		m.rec = &recorder{}
	}
	all := make([]Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)
	return &MockLogger{rec: m.rec, fields: all, err: err}
}

func (m *MockLogger) WithError(err error) Logger { return m.child(nil, err) }

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.child([]Field{{Key: key, Value: value}}, m.err)
}

func (m *MockLogger) WithFields(fields ...Field) Logger { return m.child(fields, m.err) }

// Entries returns a copy of everything recorded so far.
func (m *MockLogger) Entries() []LogEntry {
	if m.rec == nil {
		return nil
	}
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	out := make([]LogEntry, len(m.rec.entries))
	copy(out, m.rec.entries)
	return out
}

// EntriesByLevel filters Entries by level ("DEBUG", "INFO", ...).
func (m *MockLogger) EntriesByLevel(level string) []LogEntry {
	var out []LogEntry
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasEntry reports whether an entry with this level and message exists.
func (m *MockLogger) HasEntry(level, message string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}

// Clear drops all recorded entries.
func (m *MockLogger) Clear() {
	if m.rec == nil {
		return
	}
	m.rec.mu.Lock()
	m.rec.entries = nil
	m.rec.mu.Unlock()
}

// FieldValue returns the value of key on entry e, if present.
func (e LogEntry) FieldValue(key string) (interface{}, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}
