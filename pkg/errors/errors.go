package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransport represents network, timeout and non-2xx errors
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeParsing represents malformed feed or HTML documents
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting responses from a source
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeStoreUnavailable represents an unreachable or failing article store
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a harvesting error attributed to a source
type CrawlerError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Source, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether the error is handled locally by an adapter
// instead of aborting the run.
func (e *CrawlerError) IsRecoverable() bool {
	switch e.Type {
	case ErrorTypeTransport, ErrorTypeRateLimit, ErrorTypeParsing:
		return true
	default:
		return false
	}
}

// New creates a new CrawlerError
func New(errType ErrorType, source, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewTransport creates a new transport error
func NewTransport(source, message string, err error) *CrawlerError {
	return New(ErrorTypeTransport, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewStoreUnavailable creates a new store error
func NewStoreUnavailable(source, message string, err error) *CrawlerError {
	return New(ErrorTypeStoreUnavailable, source, message, err)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any error in err's chain is a CrawlerError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	if !stderrors.As(err, &ce) {
		return false
	}
	return ce.Type == errType
}

// IsStoreUnavailable reports whether err marks an unusable article store.
func IsStoreUnavailable(err error) bool {
	return IsType(err, ErrorTypeStoreUnavailable)
}

// IsConfiguration reports whether err is an invocation-time configuration error.
func IsConfiguration(err error) bool {
	return IsType(err, ErrorTypeConfiguration)
}

// IsRateLimit reports whether err was caused by a rate limiting response.
func IsRateLimit(err error) bool {
	return IsType(err, ErrorTypeRateLimit)
}

// IsRecoverable reports whether err is a CrawlerError an adapter absorbs
// without failing the run.
func IsRecoverable(err error) bool {
	var ce *CrawlerError
	return stderrors.As(err, &ce) && ce.IsRecoverable()
}
