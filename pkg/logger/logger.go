// Package logger provides the logging interface shared by every sidekicknet
// component. Messages are printf-style and gated by a numeric verbosity level
// so that chatty per-request traces can be switched off on slow consoles.
package logger

import (
	"fmt"
	"log"
)

// Level is the verbosity threshold of a StandardLogger.
type Level int

const (
	// LevelError only lets errors through.
	LevelError Level = iota
	// LevelWarning adds warnings.
	LevelWarning
	// LevelInfo adds informational messages. This is the default.
	LevelInfo
	// LevelDebug adds per-request traces.
	LevelDebug
)

// Logger is implemented by every log backend.
type Logger interface {
	// Debug logs a per-request trace (e.g., "GET https://csdb.dk/release/...").
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Resolved csdb.dk as 1.2.3.4").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., "Unknown download host").
	Warning(format string, args ...interface{})

	// Error logs a failed operation (e.g., "GET failed with status 404").
	Error(format string, args ...interface{})

	// Close releases resources held by the logger. Safe to call multiple times.
	Close() error
}

// StandardLogger wraps a *log.Logger and drops messages above its level.
type StandardLogger struct {
	logger *log.Logger
	level  Level
}

// NewStandardLogger creates a logger at LevelInfo.
func NewStandardLogger(l *log.Logger) *StandardLogger {
	return &StandardLogger{logger: l, level: LevelInfo}
}

// NewLeveledLogger creates a logger that passes messages up to level.
func NewLeveledLogger(l *log.Logger, level Level) *StandardLogger {
	return &StandardLogger{logger: l, level: level}
}

// Level returns the configured threshold.
func (s *StandardLogger) Level() Level {
	return s.level
}

func (s *StandardLogger) printf(lvl Level, prefix, format string, args ...interface{}) {
	if lvl > s.level {
		return
	}
	s.logger.Printf(prefix+format, args...)
}

// Debug logs with a [DEBUG] prefix.
func (s *StandardLogger) Debug(format string, args ...interface{}) {
	s.printf(LevelDebug, "[DEBUG] ", format, args...)
}

// Info logs with an [INFO] prefix.
func (s *StandardLogger) Info(format string, args ...interface{}) {
	s.printf(LevelInfo, "[INFO] ", format, args...)
}

// Warning logs with a [WARNING] prefix.
func (s *StandardLogger) Warning(format string, args ...interface{}) {
	s.printf(LevelWarning, "[WARNING] ", format, args...)
}

// Error logs with an [ERROR] prefix. Errors are never filtered.
func (s *StandardLogger) Error(format string, args ...interface{}) {
	s.printf(LevelError, "[ERROR] ", format, args...)
}

// Close is a no-op.
func (s *StandardLogger) Close() error {
	return nil
}

// NopLogger discards all messages.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Close() error                               { return nil }

var (
	_ Logger = (*StandardLogger)(nil)
	_ Logger = (*NopLogger)(nil)
)

// MockLogger records every call so tests can assert on log output.
type MockLogger struct {
	DebugCalls   []string
	InfoCalls    []string
	WarningCalls []string
	ErrorCalls   []string
	CloseCalled  bool
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

var _ Logger = (*MockLogger)(nil)
