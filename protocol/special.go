package protocol

import "github.com/mohitkumar/busframe/frame"

// DelayFrame asks the driver to pause a transmit queue. The delay travels in
// the timestamp field, in driver time units.
type DelayFrame struct {
	Delay uint64
}

func (d DelayFrame) Record() (frame.Frame, error) {
	return frame.Frame{Timestamp: d.Delay, Type: frame.TypeSpecialDelay, Payload: []byte{}}, nil
}

// LogTriggerFrame marks the time a log trigger fired.
type LogTriggerFrame struct {
	Timestamp uint64
}

func (l LogTriggerFrame) Record() (frame.Frame, error) {
	return frame.Frame{Timestamp: l.Timestamp, Type: frame.TypeSpecialLogTrigger, Payload: []byte{}}, nil
}

// StartTriggerFrame marks the time the interface started communicating.
type StartTriggerFrame struct {
	Timestamp uint64
}

func (s StartTriggerFrame) Record() (frame.Frame, error) {
	return frame.Frame{Timestamp: s.Timestamp, Type: frame.TypeSpecialStartTrigger, Payload: []byte{}}, nil
}
