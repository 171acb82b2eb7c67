package fetch

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	// KindNoBackend means no HTTP backend is usable on this host. It is fatal for the run.
	KindNoBackend ErrorKind = iota
	// KindRequest covers transport failures: DNS, connect, TLS, truncated bodies.
	KindRequest
	// KindStatus is a non-2xx HTTP response.
	KindStatus
	// KindTooLarge is an in-memory response over the size bound.
	KindTooLarge
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoBackend:
		return "no backend"
	case KindRequest:
		return "request"
	case KindStatus:
		return "status"
	case KindTooLarge:
		return "too large"
	default:
		return "unknown"
	}
}

// FetchError is returned by Fetcher and its backends.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int // set for KindStatus when the backend knows it
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindNoBackend:
		return fmt.Sprintf("no usable HTTP backend: %v", e.Err)
	case KindStatus:
		if e.StatusCode != 0 {
			return fmt.Sprintf("GET %s: HTTP status %d", e.URL, e.StatusCode)
		}
		return fmt.Sprintf("GET %s: HTTP error: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("GET %s: %s failed: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request could succeed.
func (e *FetchError) Transient() bool {
	switch e.Kind {
	case KindRequest:
		return true
	case KindStatus:
		return e.StatusCode >= http.StatusInternalServerError ||
			e.StatusCode == http.StatusRequestTimeout ||
			e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}
