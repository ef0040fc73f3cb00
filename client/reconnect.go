package client

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/mohitkumar/busframe/transport"
)

// ShouldReconnect reports whether err left the connection unusable, so the
// caller should dial again (see DialAny) before retrying. Codec errors such
// as an oversized payload do not qualify.
func ShouldReconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, transport.ErrClosed) || errors.Is(err, transport.ErrBatchCRC) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
