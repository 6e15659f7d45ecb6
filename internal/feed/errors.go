package feed

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrMalformedResponse marks a response body that could not be decoded.
// Asking again would return the same body, so it is never retried.
var ErrMalformedResponse = errors.New("malformed feed response")

// StatusError is returned when the feed answers with a non-success status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("feed returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("feed returned status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError represents an HTTP 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
	}
	return "rate limit exceeded"
}

// parseRetryAfter reads Retry-After as either delay-seconds or an HTTP date.
// It returns 0 when the header is absent or unusable.
func parseRetryAfter(headers http.Header) time.Duration {
	v := headers.Get("Retry-After")
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
