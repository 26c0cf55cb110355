package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NetworkError reports a request that never produced a usable response:
// timeouts, DNS failures, refused connections, truncated bodies.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch: network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response when the caller required success
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch: unexpected status %d from %s", e.Status, e.URL)
}

// IsTimeout reports whether err was caused by a deadline
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusOf returns the status carried by an HTTPError, or 0
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
