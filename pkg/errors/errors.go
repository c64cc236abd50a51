package errors

import "fmt"

// ErrorType classifies remote-call and persistence failures
type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeAccessDenied  ErrorType = "access_denied"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeSerialization ErrorType = "serialization"
	ErrorTypeServerError   ErrorType = "server_error"
	ErrorTypeIO            ErrorType = "io"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// Error represents an API or persistence error with type information.
// Callers branch on Type rather than matching message text.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable reports whether an error type should be retried in-process.
// Only throttling is retryable; everything else propagates to the caller.
func IsRetryable(errorType ErrorType) bool {
	return errorType == ErrorTypeRateLimit
}

// TypeForStatusCode maps an HTTP status code to an error type
func TypeForStatusCode(statusCode int) ErrorType {
	switch statusCode {
	case 0:
		return ErrorTypeNetwork
	case 401:
		return ErrorTypeAuth
	case 403:
		return ErrorTypeAccessDenied
	case 404:
		return ErrorTypeNotFound
	case 429:
		return ErrorTypeRateLimit
	default:
		if statusCode >= 500 {
			return ErrorTypeServerError
		}
		return ErrorTypeUnknown
	}
}
