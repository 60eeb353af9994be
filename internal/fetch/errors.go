package fetch

import (
	"errors"
	"fmt"
)

// Error kinds. An *Error always carries exactly one of them, so callers
// can branch with errors.Is.
var (
	// ErrRequest means no response was received: DNS, connect, TLS,
	// timeout or cancellation.
	ErrRequest = errors.New("request failed")

	// ErrStatus means the server answered with a non-2xx status.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge means the body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrInvalidProxyAddress is returned by NewHTTPClient for a proxy
	// address that is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// Error describes a failed fetch.
type Error struct {
	// Kind is one of ErrRequest, ErrStatus or ErrBodyTooLarge.
	Kind error
	// URL is the requested URL.
	URL string
	// StatusCode is set for ErrStatus.
	StatusCode int
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: %v: %d", e.URL, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %v: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
