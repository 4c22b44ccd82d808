package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrConnection means the socket could not be opened or broke mid-operation
	ErrConnection = errors.New("connection error")
	// ErrProtocolDetection means neither dialect answered the status query
	ErrProtocolDetection = errors.New("protocol detection failed")
	// ErrMalformedResponse means a reply had the wrong length or contents
	ErrMalformedResponse = errors.New("malformed response")
	// ErrTimeout means a read deadline elapsed before a full reply arrived
	ErrTimeout = errors.New("timeout")
	// ErrInvalidArgument means the caller passed a value the device cannot accept
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotConnected means the session has not completed Connect
	ErrNotConnected = errors.New("not connected")
	// ErrFaulted means the session hit an unrecoverable I/O error
	ErrFaulted = errors.New("session faulted")
)

// isTimeout reports whether err is a deadline expiry of any flavor
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ioError classifies a socket error as ErrTimeout or ErrConnection
func ioError(op string, err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnection, op, err)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
