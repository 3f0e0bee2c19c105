// Package resilience wraps the outbound calls to Airtable, Clio, and the
// Drive API with retries and transient-failure classification.
package resilience

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// TransientError marks a provider failure that is safe to retry. RetryAfter
// carries the wait the server asked for, when the response included one.
type TransientError struct {
	Err        error
	StatusCode int
	RetryAfter time.Duration
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError marks err retryable, tagged with the HTTP status that
// produced it.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// HTTPError classifies a non-2xx provider response. Retryable statuses come
// back as a TransientError carrying any Retry-After wait; everything else is
// returned unchanged so the caller fails fast.
func HTTPError(err error, statusCode int, header http.Header) error {
	if !RetryableStatus(statusCode) {
		return err
	}
	return &TransientError{Err: err, StatusCode: statusCode, RetryAfter: retryAfterWait(header)}
}

// RetryableStatus reports whether an HTTP status indicates a transient
// server-side condition. Airtable and Clio both signal rate limits with 429.
func RetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// retryAfterWait parses a Retry-After header, in either delay-seconds or
// HTTP-date form. Returns 0 when absent or unparseable.
func retryAfterWait(header http.Header) time.Duration {
	raw := header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

// transportFailures are transport-level failure substrings that reach us as
// plain wrapped errors rather than typed ones.
var transportFailures = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"transport connection broken",
}

// IsTransient reports whether err is worth retrying: a TransientError in the
// chain, a network timeout, a recoverable socket error, or a known transport
// failure message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transportFailures {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
