package errors

import (
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeError_UnwrapsToUnknownFrame(t *testing.T) {
	req := require.New(t)
	err := fmt.Errorf("read frame: %w", &DecodeError{Discriminant: 42})

	req.ErrorIs(err, ErrUnknownFrame)
	req.True(IsDecodeError(err))
	req.Contains(err.Error(), "42")
	req.False(IsDecodeError(io.EOF))
}

func TestIsConnectionClosed(t *testing.T) {
	req := require.New(t)
	req.True(IsConnectionClosed(io.EOF))
	req.True(IsConnectionClosed(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
	req.True(IsConnectionClosed(net.ErrClosed))
	req.True(IsConnectionClosed(os.ErrDeadlineExceeded))
	req.True(IsConnectionClosed(&net.OpError{Op: "write", Err: syscall.EPIPE}))
	req.True(IsConnectionClosed(&net.OpError{Op: "read", Err: syscall.ECONNRESET}))

	req.False(IsConnectionClosed(nil))
	req.False(IsConnectionClosed(ErrRepositoryUnavailable))
	req.False(IsConnectionClosed(&DecodeError{Discriminant: 7}))
}
