package resilience

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorRateLimited(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "2")

	err := HTTPError(errors.New("airtable: unexpected status 429"), 429, header)

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 429, te.StatusCode)
	assert.Equal(t, 2*time.Second, te.RetryAfter)
}

func TestHTTPErrorPermanentStatusPassesThrough(t *testing.T) {
	orig := errors.New("clio: unexpected status 404")

	err := HTTPError(orig, 404, http.Header{})

	assert.Equal(t, orig, err)
	var te *TransientError
	assert.False(t, errors.As(err, &te))
}

func TestHTTPErrorWithoutRetryAfter(t *testing.T) {
	err := HTTPError(errors.New("bad gateway"), 502, http.Header{})

	var te *TransientError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.RetryAfter)
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, RetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 400, 401, 403, 404, 405, 409, 422} {
		assert.False(t, RetryableStatus(code), "status %d", code)
	}
}

func TestRetryAfterWaitForms(t *testing.T) {
	t.Run("delay seconds", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "30")
		assert.Equal(t, 30*time.Second, retryAfterWait(h))
	})

	t.Run("http date", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))
		wait := retryAfterWait(h)
		assert.Greater(t, wait, 5*time.Second)
		assert.LessOrEqual(t, wait, 10*time.Second)
	})

	t.Run("absent or junk", func(t *testing.T) {
		assert.Zero(t, retryAfterWait(http.Header{}))
		h := http.Header{}
		h.Set("Retry-After", "soon")
		assert.Zero(t, retryAfterWait(h))
	})
}

func TestIsTransient(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.False(t, IsTransient(nil))
	})

	t.Run("transient error survives eris wrapping", func(t *testing.T) {
		err := eris.Wrap(NewTransientError(errors.New("rate limited"), 429), "airtable: list leads")
		assert.True(t, IsTransient(err))
	})

	t.Run("network timeout", func(t *testing.T) {
		assert.True(t, IsTransient(&net.DNSError{IsTimeout: true, Err: "timeout"}))
	})

	t.Run("connection reset", func(t *testing.T) {
		assert.True(t, IsTransient(fmt.Errorf("write tcp: %w", syscall.ECONNRESET)))
	})

	t.Run("connection refused", func(t *testing.T) {
		assert.True(t, IsTransient(fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)))
	})

	t.Run("transport failure message", func(t *testing.T) {
		for _, msg := range []string{
			"connection reset by peer",
			"broken pipe",
			"TLS handshake timeout",
			"i/o timeout",
			"server closed idle connection",
		} {
			assert.True(t, IsTransient(errors.New(msg)), msg)
		}
	})

	t.Run("permanent error", func(t *testing.T) {
		assert.False(t, IsTransient(errors.New("airtable: unexpected status 422: invalid field")))
	})
}

func TestTransientErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	te := NewTransientError(inner, 500)

	assert.ErrorIs(t, te, inner)
	assert.Equal(t, 500, te.StatusCode)
	assert.Equal(t, "root cause", te.Error())
}
