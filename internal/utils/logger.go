package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogLevel represents different logging levels
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	DISABLED
)

// String returns the string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case DISABLED:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel maps a LOG_LEVEL value onto a LogLevel. Unknown values return INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "DISABLED", "OFF":
		return DISABLED
	default:
		return INFO
	}
}

// base is shared by every component logger so output and formatter are set once.
var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.TraceLevel) // filtering happens per component
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// SetOutput redirects all component loggers. Tests use it to silence output.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// SetJSONFormat switches all component loggers to JSON lines.
func SetJSONFormat(enabled bool) {
	if enabled {
		base.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Logger is a named component logger with its own minimum level
type Logger struct {
	level int32 // atomic access
	name  string
}

// Global logger instance
var globalLogger *Logger

func init() {
	globalLogger = NewLogger("GLOBAL")
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		globalLogger.SetLevel(ParseLogLevel(envLevel))
	}
}

// NewLogger creates a new logger with the given name
func NewLogger(name string) *Logger {
	return &Logger{
		level: int32(INFO),
		name:  name,
	}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	atomic.StoreInt32(&l.level, int32(level))
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return LogLevel(atomic.LoadInt32(&l.level))
}

func (l *Logger) shouldLog(level LogLevel) bool {
	current := l.GetLevel()
	return current != DISABLED && current <= level
}

func (l *Logger) entry() *logrus.Entry {
	return base.WithField("component", l.name)
}

// WithFields returns a structured entry tagged with this component.
// The entry bypasses the component level, so callers should guard verbose use.
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry().WithFields(logrus.Fields(fields))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.entry().Debug(fmt.Sprintf(format, args...))
	}
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.entry().Info(fmt.Sprintf(format, args...))
	}
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.entry().Warn(fmt.Sprintf(format, args...))
	}
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.entry().Error(fmt.Sprintf(format, args...))
	}
}

// Fields logs msg with structured fields at the given level.
func (l *Logger) Fields(level LogLevel, msg string, fields map[string]interface{}) {
	if !l.shouldLog(level) {
		return
	}
	e := l.WithFields(fields)
	switch level {
	case DEBUG:
		e.Debug(msg)
	case WARN:
		e.Warn(msg)
	case ERROR:
		e.Error(msg)
	default:
		e.Info(msg)
	}
}

// SetGlobalLevel sets the global logger level
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

// GetGlobalLevel returns the global logger level
func GetGlobalLevel() LogLevel {
	return globalLogger.GetLevel()
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return globalLogger.shouldLog(DEBUG)
}

// Convenience functions for ad-hoc component logging
func LogInfo(component, message string, args ...interface{}) {
	componentLogger(component).Info(message, args...)
}

func LogWarn(component, message string, args ...interface{}) {
	componentLogger(component).Warn(message, args...)
}

func LogError(component, message string, args ...interface{}) {
	componentLogger(component).Error(message, args...)
}

func componentLogger(component string) *Logger {
	l := NewLogger(component)
	l.SetLevel(globalLogger.GetLevel())
	return l
}

// Component-specific loggers for different parts of the system
var (
	APILogger      = NewLogger("API")
	PollerLogger   = NewLogger("POLLER")
	ResolverLogger = NewLogger("RESOLVER")
	CacheLogger    = NewLogger("CACHE")
	WSLogger       = NewLogger("WS")
	ServerLogger   = NewLogger("SERVER")
)

// InitializeComponentLoggers sets component levels from the global level.
// ENABLE_DEBUG_LOGS=true forces every component to DEBUG.
func InitializeComponentLoggers(level LogLevel) {
	SetGlobalLevel(level)
	if os.Getenv("ENABLE_DEBUG_LOGS") == "true" {
		level = DEBUG
	}
	for _, l := range []*Logger{APILogger, PollerLogger, ResolverLogger, CacheLogger, WSLogger, ServerLogger} {
		l.SetLevel(level)
	}
	// websocket chatter is noisy at INFO
	if level == INFO {
		WSLogger.SetLevel(WARN)
	}
}
