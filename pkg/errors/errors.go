package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures and non-success statuses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents markup that lacks a required node or attribute
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeSink represents a rejected destination write
	ErrorTypeSink ErrorType = "sink"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a typed pipeline error
type CrawlerError struct {
	Type       ErrorType
	Component  string
	Message    string
	Err        error
	RetryAfter time.Duration
	Time       time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// New creates a new CrawlerError
func New(errType ErrorType, component, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *CrawlerError {
	e := New(ErrorTypeRateLimit, component, fmt.Sprintf("rate limited for %v", duration), nil)
	e.RetryAfter = duration
	return e
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, component, message, err)
}

// NewSink creates a new sink error
func NewSink(component, message string, err error) *CrawlerError {
	return New(ErrorTypeSink, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *CrawlerError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the type of the first CrawlerError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var ce *CrawlerError
	if stderrors.As(err, &ce) {
		return ce.Type
	}
	return ""
}

// Is reports whether err carries a CrawlerError of the given type
func Is(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
