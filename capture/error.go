package capture

import "github.com/mohitkumar/busframe/errs"

var ErrOffsetOutOfRange = errs.ErrCaptureOffsetOutOfRange

func ErrOffsetOutOfRangef(offset uint64) error { return errs.ErrCaptureOffsetOutOfRangef(offset) }
func ErrRejectedBuffer(err error) error        { return errs.ErrRejectedBuffer(err) }
