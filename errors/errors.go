package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

var (
	ErrWorkerPanic           = fmt.Errorf("worker panic")
	ErrSessionPanic          = fmt.Errorf("session panic")
	ErrUnknownFrame          = fmt.Errorf("unknown frame discriminant")
	ErrInvalidSender         = fmt.Errorf("sender is not registered in this repository")
	ErrRepositoryUnavailable = fmt.Errorf("repository unavailable")
	ErrNotRegistered         = fmt.Errorf("session is not registered")
	ErrUnexpectedFrame       = fmt.Errorf("unexpected frame")
	ErrAcceptorClosed        = fmt.Errorf("acceptor closed")
)

// Is and As forward to the standard library so callers importing this
// package do not need a second, aliased errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func New(text string) error { return stderrors.New(text) }

// DecodeError reports a frame whose discriminant is not part of the protocol.
// It is recoverable: the frame has been fully consumed and the stream is still
// aligned on the next frame boundary.
type DecodeError struct {
	Discriminant int32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: unknown discriminant %d", e.Discriminant)
}

func (e *DecodeError) Unwrap() error {
	return ErrUnknownFrame
}

// IsDecodeError reports whether err carries a DecodeError.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return stderrors.As(err, &decodeErr)
}

// IsConnectionClosed reports whether err is a normal end of connection:
// EOF, a closed connection, broken pipe, reset by peer or an expired read
// deadline. These end a session but are not worth an error log line.
func IsConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, io.EOF) ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, io.ErrClosedPipe) ||
		stderrors.Is(err, net.ErrClosed) ||
		stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
