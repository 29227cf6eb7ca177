package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the gateway reports that the requested
	// block or class does not exist.
	ErrNotFound = errors.New("not found on gateway")
)

// ErrBadResponse is returned when the gateway replies with a payload that
// cannot be decoded.
type ErrBadResponse struct {
	Reason error
}

func (e ErrBadResponse) Error() string {
	return fmt.Sprintf("gateway returned a bad response: %s", e.Reason.Error())
}

func (e ErrBadResponse) Unwrap() error { return e.Reason }

// ErrStatus is returned for HTTP replies that are neither successful nor a
// recognised gateway error.
type ErrStatus struct {
	Code int
	Body string
}

func (e ErrStatus) Error() string {
	return fmt.Sprintf("gateway replied with status %d: %s", e.Code, e.Body)
}

// Retryable reports whether a request failing with this status is worth
// retrying.
func (e ErrStatus) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}
