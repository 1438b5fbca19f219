package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// PermanentError marks a failure that will not succeed on retry (bad
// request, validation failure, 4xx class responses). The queue surfaces
// it immediately without consuming a retry.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the queue will not retry it. A nil err returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is tagged as non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// statusCoder is implemented by errors that carry an upstream HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// panicError wraps a recovered panic from an operation.
type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprintf("operation panicked: %v", e.value) }

// FailureReason classifies an error for retry metrics and logs.
func FailureReason(err error) string {
	if err == nil {
		return "none"
	}
	if IsPermanent(err) {
		return "permanent"
	}
	var pe *panicError
	if errors.As(err, &pe) {
		return "panic"
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		switch status := sc.HTTPStatus(); {
		case status == 429:
			return "http_429"
		case status >= 500:
			return "http_5xx"
		case status >= 400:
			return "http_4xx"
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return "timeout"
		}
		return "network"
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "timeout") {
		return "timeout"
	}
	if strings.Contains(errLower, "connection refused") {
		return "connection_refused"
	}
	if strings.Contains(errLower, "no such host") || strings.Contains(errLower, "dns") {
		return "dns_error"
	}
	return "other"
}
