// Package testutil holds helpers shared by package tests.
package testutil

import (
	"strings"
	"sync"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

// LogMessage is a single entry captured by RecordingLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type logSink struct {
	mu       sync.Mutex
	messages []LogMessage
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children created with With or Named share the parent's sink.
type RecordingLogger struct {
	sink   *logSink
	name   string
	fields []logging.Field
}

// NewRecordingLogger returns an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{sink: &logSink{}}
}

func (r *RecordingLogger) record(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(r.fields)+len(fields))
	all = append(all, r.fields...)
	all = append(all, fields...)

	r.sink.mu.Lock()
	r.sink.messages = append(r.sink.messages, LogMessage{
		Level:   level,
		Logger:  r.name,
		Message: msg,
		Fields:  all,
	})
	r.sink.mu.Unlock()
}

func (r *RecordingLogger) Debug(msg string, fields ...logging.Field) { r.record("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...logging.Field)  { r.record("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...logging.Field)  { r.record("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...logging.Field) { r.record("error", msg, fields) }

// Fatal records at level "fatal" and does not exit.
func (r *RecordingLogger) Fatal(msg string, fields ...logging.Field) { r.record("fatal", msg, fields) }

func (r *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	merged := make([]logging.Field, 0, len(r.fields)+len(fields))
	merged = append(merged, r.fields...)
	merged = append(merged, fields...)
	return &RecordingLogger{sink: r.sink, name: r.name, fields: merged}
}

func (r *RecordingLogger) Named(name string) logging.Logger {
	full := name
	if r.name != "" {
		full = r.name + "." + name
	}
	return &RecordingLogger{sink: r.sink, name: full, fields: r.fields}
}

func (r *RecordingLogger) Sync() error { return nil }

// Messages returns a copy of everything recorded so far.
func (r *RecordingLogger) Messages() []LogMessage {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	out := make([]LogMessage, len(r.sink.messages))
	copy(out, r.sink.messages)
	return out
}

// Clear drops all recorded entries.
func (r *RecordingLogger) Clear() {
	r.sink.mu.Lock()
	r.sink.messages = nil
	r.sink.mu.Unlock()
}

// HasMessage reports whether an entry at level contains substr in its message.
func (r *RecordingLogger) HasMessage(level, substr string) bool {
	for _, m := range r.Messages() {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of entries recorded at level.
func (r *RecordingLogger) Count(level string) int {
	n := 0
	for _, m := range r.Messages() {
		if m.Level == level {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
