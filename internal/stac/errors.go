package stac

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies catalog request failures.
type ErrorType string

const (
	ErrTypeNotFound   ErrorType = "not_found"
	ErrTypeUpstream   ErrorType = "upstream_failure"
	ErrTypeNetwork    ErrorType = "network"
	ErrTypeParse      ErrorType = "parse_error"
	ErrTypeUnexpected ErrorType = "unexpected"
)

// ErrUnexpectedStatus is wrapped by every non-200 RequestError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// RequestError is a failed catalog request.
type RequestError struct {
	Type       ErrorType
	StatusCode int
	URL        string
	Cause      error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("stac %s: HTTP %d for %s", e.Type, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("stac %s: %s for %s", e.Type, e.Cause, e.URL)
}

func (e *RequestError) Unwrap() error { return e.Cause }

// classifyStatus creates a RequestError from a non-200 status code.
func classifyStatus(statusCode int, url string) *RequestError {
	cause := fmt.Errorf("%w: HTTP %d", ErrUnexpectedStatus, statusCode)

	switch {
	case statusCode == http.StatusNotFound:
		return &RequestError{Type: ErrTypeNotFound, StatusCode: statusCode, URL: url, Cause: cause}
	case statusCode >= http.StatusInternalServerError:
		return &RequestError{Type: ErrTypeUpstream, StatusCode: statusCode, URL: url, Cause: cause}
	default:
		return &RequestError{Type: ErrTypeUnexpected, StatusCode: statusCode, URL: url, Cause: cause}
	}
}

func networkError(cause error, url string) *RequestError {
	return &RequestError{Type: ErrTypeNetwork, URL: url, Cause: cause}
}

func parseError(cause error, url string) *RequestError {
	return &RequestError{Type: ErrTypeParse, URL: url, Cause: cause}
}
