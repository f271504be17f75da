package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the fetcher.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrBodyTooLarge is returned when a response exceeds Config.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors (and unexpected 3xx).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 and 520 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport, timeout and body read errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassInvalid represents requests that could not be built.
	ErrorClassInvalid ErrorClass = "invalid_request"
)

// FetchError describes a failed fetch of one source.
type FetchError struct {
	Source     string
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %s error (status %d): %s", e.Source, e.Class, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s error: %v", e.Source, e.Class, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s error: %s", e.Source, e.Class, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-success status to an error class.
// Returns "" for 2xx.
func classifyStatus(code int) ErrorClass {
	switch {
	case code >= 200 && code < 300:
		return ""
	case code == http.StatusTooManyRequests || code == 520:
		return ErrorClassRateLimit
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		// 4xx and malformed requests will fail the same way again
		return false
	}
}
