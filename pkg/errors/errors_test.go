package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{
		Type:    ErrorTypeRateLimit,
		Message: "too many requests",
		Code:    429,
	}

	expected := "rate_limit error (code 429): too many requests"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestErrorWrapping(t *testing.T) {
	inner := &Error{Type: ErrorTypeAuth, Message: "token rejected", Code: 401}
	wrapped := fmt.Errorf("validating channel: %w", inner)

	var apiErr *Error
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("Expected errors.As to unwrap *Error")
	}
	if apiErr.Type != ErrorTypeAuth {
		t.Errorf("Expected auth type, got %s", apiErr.Type)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		retryable bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeNetwork, false},
		{ErrorTypeAuth, false},
		{ErrorTypeAccessDenied, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeServerError, false},
		{ErrorTypeIO, false},
		{ErrorTypeUnknown, false},
	}

	for _, test := range tests {
		if IsRetryable(test.errorType) != test.retryable {
			t.Errorf("IsRetryable(%s): expected %v", test.errorType, test.retryable)
		}
	}
}

func TestTypeForStatusCode(t *testing.T) {
	tests := []struct {
		code     int
		expected ErrorType
	}{
		{0, ErrorTypeNetwork},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAccessDenied},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{502, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, test := range tests {
		if got := TypeForStatusCode(test.code); got != test.expected {
			t.Errorf("TypeForStatusCode(%d): expected %s, got %s", test.code, test.expected, got)
		}
	}
}
