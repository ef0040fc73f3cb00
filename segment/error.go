package segment

import (
	"fmt"

	"github.com/mohitkumar/busframe/errs"
)

// Re-export segment errors from errs so code that uses segment.Err* or errors.Is(err, segment.ErrX) still works.
var (
	ErrOffsetNotFound = errs.ErrSegmentOffsetNotFound
	ErrIndexNotFound  = errs.ErrSegmentIndexNotFound
)

func ErrOffsetOutOfRange(offset, base, next uint64) error {
	return errs.ErrSegmentOffsetOutOfRange(offset, base, next)
}
func ErrFrameOutOfRange(ordinal, base, next uint64) error {
	return fmt.Errorf("frame %d out of range [%d, %d): %w", ordinal, base, next, ErrOffsetNotFound)
}
func ErrSeekFailed(err error) error     { return errs.ErrSeekFailed(err) }
func ErrTruncateFailed(err error) error { return errs.ErrTruncateFailed(err) }
