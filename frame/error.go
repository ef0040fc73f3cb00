package frame

import "github.com/mohitkumar/busframe/errs"

// Re-export codec errors from errs so callers can use frame.ErrX with errors.Is.
var (
	ErrMalformedBuffer     = errs.ErrMalformedBuffer
	ErrPayloadTooLarge     = errs.ErrPayloadTooLarge
	ErrInternalConsistency = errs.ErrInternalConsistency
)

func ErrPayloadTooLargef(t Type, length, max int) error {
	return errs.ErrPayloadTooLargef(uint8(t), length, max)
}
func ErrJ1939InfoBitsf(info uint8) error { return errs.ErrJ1939InfoBitsf(info) }
