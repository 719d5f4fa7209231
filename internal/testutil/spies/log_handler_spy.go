package spies

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     []slog.Record
	mu          sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which helps when debugging a failing test.
func NewLogHandlerSpy(logToStdout bool) *LogHandlerSpy {
	return &LogHandlerSpy{
		records:     make([]slog.Record, 0),
		logToStdout: logToStdout,
	}
}

// NewLogger returns a *slog.Logger writing into a new LogHandlerSpy.
func NewLogger() (*slog.Logger, *LogHandlerSpy) {
	spy := NewLogHandlerSpy(false)
	return slog.New(spy), spy
}

// Handle implements slog.Handler interface.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record.Clone())

	if s.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, nil).Handle(ctx, record)
	}

	return nil
}

// Enabled implements slog.Handler interface.
func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs implements slog.Handler interface.
func (s *LogHandlerSpy) WithAttrs(_ []slog.Attr) slog.Handler {
	return s
}

// WithGroup implements slog.Handler interface.
func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// GetRecordCount returns the number of captured log records.
func (s *LogHandlerSpy) GetRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Reset clears all captured log records.
func (s *LogHandlerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
}

// SpyLogRecordMatcher provides a fluent interface for checking log record attributes.
// Every condition narrows the set of candidate records, so a chain matches if any single record satisfies all of it.
type SpyLogRecordMatcher struct {
	candidates []slog.Record
}

// HasLog starts a fluent chain to check a log record with level and message.
func (s *LogHandlerSpy) HasLog(level slog.Level, message string) *SpyLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &SpyLogRecordMatcher{}
	for i := range s.records {
		if s.records[i].Level == level && s.records[i].Message == message {
			m.candidates = append(m.candidates, s.records[i])
		}
	}

	return m
}

// WithAttr keeps the records that have a string-formatted attribute key with value.
func (m *SpyLogRecordMatcher) WithAttr(key, value string) *SpyLogRecordMatcher {
	return m.filter(func(attr slog.Attr) (bool, bool) {
		if attr.Key != key {
			return false, false
		}

		return attr.Value.String() == value, attr.Value.String() == value
	})
}

// WithDurationMS keeps the records that have a duration_ms attribute with a non-negative value.
func (m *SpyLogRecordMatcher) WithDurationMS() *SpyLogRecordMatcher {
	return m.filter(func(attr slog.Attr) (bool, bool) {
		if attr.Key != "duration_ms" {
			return false, false
		}

		switch attr.Value.Kind() {
		case slog.KindInt64:
			return attr.Value.Int64() >= 0, true
		case slog.KindFloat64:
			return attr.Value.Float64() >= 0, true
		default:
			return false, true
		}
	})
}

// filter keeps the candidates with an attribute accepted by check.
// check reports whether attr matched, and whether the scan of the record can stop.
func (m *SpyLogRecordMatcher) filter(check func(attr slog.Attr) (matched bool, done bool)) *SpyLogRecordMatcher {
	kept := m.candidates[:0]

	for _, record := range m.candidates {
		matched := false
		record.Attrs(func(attr slog.Attr) bool {
			ok, done := check(attr)
			matched = ok
			return !done
		})

		if matched {
			kept = append(kept, record)
		}
	}

	m.candidates = kept

	return m
}

// Assert returns true if at least one record met all conditions in the fluent chain.
func (m *SpyLogRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}
