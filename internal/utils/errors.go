package utils

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNetwork    ErrorType = "NETWORK"
	ErrorTypeBackend    ErrorType = "BACKEND"
	ErrorTypeDecode     ErrorType = "DECODE"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeCache      ErrorType = "CACHE"
	ErrorTypeWebSocket  ErrorType = "WEBSOCKET"
	ErrorTypeInternal   ErrorType = "INTERNAL"
	ErrorTypeConfig     ErrorType = "CONFIG"
	ErrorTypeTimeout    ErrorType = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	StackTrace string                 `json:"stackTrace,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Component  string                 `json:"component"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is retryable
func (e *AppError) IsRetryable() bool {
	return e.Retryable
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds additional details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// AsRetryable marks the error as retryable
func (e *AppError) AsRetryable() *AppError {
	e.Retryable = true
	return e
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, code, message, component string) *AppError {
	return &AppError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Component: component,
		Timestamp: time.Now().UTC(),
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error context
func WrapError(err error, errorType ErrorType, code, message, component string) *AppError {
	appErr := NewAppError(errorType, code, message, component)
	appErr.Cause = err

	if includeStackTrace {
		appErr.StackTrace = getStackTrace()
	}

	return appErr
}

var includeStackTrace = false

// SetIncludeStackTrace configures whether to include stack traces in errors
func SetIncludeStackTrace(include bool) {
	includeStackTrace = include
}

func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // skip getStackTrace, WrapError and its caller

	var trace strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		trace.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return trace.String()
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.IsRetryable() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"service unavailable",
		"too many requests",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// GetErrorType extracts the error type from an error
func GetErrorType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// LogAppError logs an error with its structured context
func LogAppError(err error, logger *Logger, additionalContext ...map[string]interface{}) {
	fields := make(map[string]interface{})
	var appErr *AppError
	if errors.As(err, &appErr) {
		fields["errorType"] = appErr.Type
		fields["errorCode"] = appErr.Code
		fields["retryable"] = appErr.Retryable
		fields["component"] = appErr.Component
		for k, v := range appErr.Context {
			fields[k] = v
		}
		if appErr.StackTrace != "" {
			fields["stackTrace"] = appErr.StackTrace
		}
	} else {
		fields["errorType"] = "UNKNOWN"
	}
	if len(additionalContext) > 0 {
		for k, v := range additionalContext[0] {
			fields[k] = v
		}
	}
	logger.Fields(ERROR, err.Error(), fields)
}
