package transport

import "github.com/mohitkumar/busframe/errs"

var (
	ErrMessageTooLarge = errs.ErrMessageTooLarge
	ErrBatchCRC        = errs.ErrBatchCRC
	ErrBatchTooShort   = errs.ErrBatchTooShort
	ErrClosed          = errs.ErrClosed
)
