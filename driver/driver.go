// Package driver defines the buffer-level boundary to an interface driver
// and provides an in-memory loopback bus for tests and simulations.
package driver

import (
	"context"

	"github.com/mohitkumar/busframe/errs"
)

// Driver moves raw frame buffers to and from an interface. A buffer is a
// concatenation of encoded frame records. Implementations should be safe
// for concurrent use.
type Driver interface {
	// Read blocks until a buffer is available or ctx is done.
	Read(ctx context.Context) ([]byte, error)
	// Write submits a buffer for transmission.
	Write(ctx context.Context, buf []byte) error
	Close() error
}

// ErrClosed indicates the driver or endpoint has been closed.
var ErrClosed = errs.ErrDriverClosed
