package feed

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports a network failure, a timeout or a non-success status.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (URL = %s, status = %d): %v", e.URL, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("transport error (URL = %s): %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError reports a response without recognizable feed structure.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (URL = %s): %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errUnexpectedStatus = errors.New("unexpected status")

// IsDiscoveryHalt reports whether err marks the end of contiguous account
// slots: the slot is not authenticated or does not exist.
func IsDiscoveryHalt(err error) bool {
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		return false
	}

	return transportErr.StatusCode == http.StatusUnauthorized ||
		transportErr.StatusCode == http.StatusNotFound
}

func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
