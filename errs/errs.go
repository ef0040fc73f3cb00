// Package errs provides shared errors for busframe, grouped by layer (frame codec, views, segment, capture, transport, driver).
// Check errors with errors.Is(err, errs.ErrX). Constructors ending in f wrap the sentinel with context.
package errs

import (
	"errors"
	"fmt"
)

// Frame codec errors (malformed buffers, oversized payloads, J1939 info misuse).

var (
	ErrMalformedBuffer     = errors.New("frame: malformed buffer")
	ErrPayloadTooLarge     = errors.New("frame: payload too large")
	ErrInternalConsistency = errors.New("frame: internal consistency violation")
)

func ErrTruncatedBaseUnitf(offset, remaining int) error {
	return fmt.Errorf("base unit at offset %d needs 24 bytes, %d remaining: %w", offset, remaining, ErrMalformedBuffer)
}

func ErrTruncatedExtensionUnitf(offset, need, remaining int) error {
	return fmt.Errorf("extension unit at offset %d needs %d bytes, %d remaining: %w", offset, need, remaining, ErrMalformedBuffer)
}

func ErrPayloadTooLargef(frameType uint8, length, max int) error {
	return fmt.Errorf("frame type 0x%02X: payload length %d exceeds %d: %w", frameType, length, max, ErrPayloadTooLarge)
}

func ErrJ1939InfoBitsf(info uint8) error {
	return fmt.Errorf("J1939 info 0x%02X already sets length extension bits: %w", info, ErrInternalConsistency)
}

// View errors (identifier outside its bit width, unknown view type).

var (
	ErrUndefinedIdentifier = errors.New("protocol: undefined identifier")
	ErrUnknownView         = errors.New("protocol: unknown frame view")
	ErrWrongFrameType      = errors.New("protocol: wrong frame type for view")
)

func ErrUndefinedIdentifierf(identifier uint32, bits int) error {
	return fmt.Errorf("identifier 0x%X does not fit %d bits: %w", identifier, bits, ErrUndefinedIdentifier)
}

func ErrUnknownViewf(v any) error {
	return fmt.Errorf("%T: %w", v, ErrUnknownView)
}

func ErrWrongFrameTypef(view string, frameType uint8) error {
	return fmt.Errorf("%s cannot hold frame type 0x%02X: %w", view, frameType, ErrWrongFrameType)
}

func ErrShortViewPayloadf(view string, need, have int) error {
	return fmt.Errorf("%s payload needs %d bytes, got %d: %w", view, need, have, ErrMalformedBuffer)
}

// Segment errors (offset/index not found, seek and truncate failures).

var (
	ErrSegmentOffsetNotFound = errors.New("offset not found")
	ErrSegmentIndexNotFound  = errors.New("index not found")
)

func ErrSegmentOffsetOutOfRange(offset, base, next uint64) error {
	return fmt.Errorf("offset %d out of range [%d, %d): %w", offset, base, next, ErrSegmentOffsetNotFound)
}

func ErrSeekFailed(err error) error     { return fmt.Errorf("failed to seek: %w", err) }
func ErrTruncateFailed(err error) error { return fmt.Errorf("truncate failed: %w", err) }

// Capture errors.

var ErrCaptureOffsetOutOfRange = errors.New("capture: offset out of range")

func ErrCaptureOffsetOutOfRangef(offset uint64) error {
	return fmt.Errorf("offset %d out of range: %w", offset, ErrCaptureOffsetOutOfRange)
}

func ErrRejectedBuffer(err error) error {
	return fmt.Errorf("capture: rejected buffer: %w", err)
}

// Transport errors (message size, batch integrity, closed connection).

var (
	ErrMessageTooLarge = errors.New("transport: message exceeds max size")
	ErrBatchCRC        = errors.New("transport: frame batch CRC mismatch")
	ErrBatchTooShort   = errors.New("transport: frame batch too short")
	ErrClosed          = errors.New("transport: connection closed")
)

func ErrMessageTooLargef(size, max int) error {
	return fmt.Errorf("%d bytes, max %d: %w", size, max, ErrMessageTooLarge)
}

func ErrBatchCountf(header, decoded int) error {
	return fmt.Errorf("batch header says %d frames, decoded %d: %w", header, decoded, ErrMalformedBuffer)
}

// Driver errors.

var ErrDriverClosed = errors.New("driver: closed")
