package transport

import (
	"errors"
	"fmt"
)

var (
	ErrSignalingUnreachable = errors.New("signaling service unreachable")
	ErrCandidateAbsent      = errors.New("candidate does not exist")
	ErrLinkFailed           = errors.New("link failed")
	ErrLinkNotOpen          = errors.New("link not open")
	ErrUnknownLink          = errors.New("unknown link")
	ErrEndpointClosed       = errors.New("endpoint closed")
)

// TransportError carries the operation and remote identifier alongside the
// underlying failure.
type TransportError struct {
	Op      string
	Remote  string
	Err     error
	Details string
}

func (e *TransportError) Error() string {
	if e.Remote != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Remote, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func NewRemoteError(op, remote string, err error) *TransportError {
	return &TransportError{Op: op, Remote: remote, Err: err}
}

func WrapError(op string, err error, details string) *TransportError {
	return &TransportError{Op: op, Err: err, Details: details}
}
