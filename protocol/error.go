package protocol

import (
	"github.com/mohitkumar/busframe/errs"
	"github.com/mohitkumar/busframe/frame"
)

// Re-export view errors from errs so callers can use protocol.ErrX with errors.Is.
var (
	ErrUndefinedIdentifier = errs.ErrUndefinedIdentifier
	ErrUnknownView         = errs.ErrUnknownView
	ErrWrongFrameType      = errs.ErrWrongFrameType
)

func ErrUndefinedIdentifierf(id uint32, bits int) error { return errs.ErrUndefinedIdentifierf(id, bits) }
func ErrUnknownViewf(v any) error                       { return errs.ErrUnknownViewf(v) }
func ErrWrongFrameTypef(view string, t frame.Type) error {
	return errs.ErrWrongFrameTypef(view, uint8(t))
}
func ErrShortViewPayloadf(view string, need, have int) error {
	return errs.ErrShortViewPayloadf(view, need, have)
}
