package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a request failure so callers can distinguish "the server
// said no" from "we never heard back".
type Kind int

const (
	// KindNetwork covers transport-level failures: refused connections,
	// DNS errors, broken pipes.
	KindNetwork Kind = iota
	// KindTimeout covers deadline expiry, caller-supplied or default.
	KindTimeout
	// KindServer covers responses the server rejected (4xx/5xx).
	KindServer
	// KindConflict covers state conflicts, e.g. approving an
	// already-decided suggestion. Never safe to retry.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindServer:
		return "server"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// RequestError is the typed failure returned by every client operation.
type RequestError struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s failure: %s", e.Op, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
}

func (e *RequestError) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or KindNetwork if err is not a
// RequestError.
func KindOf(err error) Kind {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindNetwork
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == KindTimeout
}

// IsConflict reports whether err is a state-conflict failure.
func IsConflict(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Kind == KindConflict
}

// classifyTransport maps a transport error to a timeout or network failure.
func classifyTransport(op string, err error) *RequestError {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &RequestError{Kind: kind, Op: op, Err: err}
}
