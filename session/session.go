// Package session reads and writes frame records through a driver.
package session

import (
	"context"
	"sync/atomic"

	"github.com/mohitkumar/busframe/driver"
	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
	"go.uber.org/zap"
)

// Sink stores raw read buffers. *capture.Log satisfies it.
type Sink interface {
	Append(buf []byte) (uint64, error)
}

type Option func(*Session)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCapture records every successfully decoded read buffer in sink.
func WithCapture(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// Stats counts traffic through a session.
type Stats struct {
	BuffersWritten uint64
	FramesWritten  uint64
	BuffersRead    uint64
	FramesRead     uint64
	Captured       uint64
}

type Session struct {
	drv    driver.Driver
	sink   Sink
	codec  protocol.Codec
	logger *zap.Logger

	buffersWritten atomic.Uint64
	framesWritten  atomic.Uint64
	buffersRead    atomic.Uint64
	framesRead     atomic.Uint64
	captured       atomic.Uint64
}

func New(drv driver.Driver, opts ...Option) *Session {
	s := &Session{drv: drv, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("session")
	return s
}

// WriteFrames encodes frames into one buffer and submits it in a single
// driver write. An empty frame list is a no-op.
func (s *Session) WriteFrames(ctx context.Context, frames ...frame.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	buf, err := frame.EncodeAll(frames...)
	if err != nil {
		s.logger.Warn("encode failed", zap.Int("frames", len(frames)), zap.Error(err))
		return err
	}
	return s.write(ctx, buf, len(frames))
}

// WriteViews is WriteFrames for typed views.
func (s *Session) WriteViews(ctx context.Context, views ...any) error {
	if len(views) == 0 {
		return nil
	}
	buf, err := s.codec.Marshal(views...)
	if err != nil {
		s.logger.Warn("encode failed", zap.Int("views", len(views)), zap.Error(err))
		return err
	}
	return s.write(ctx, buf, len(views))
}

func (s *Session) write(ctx context.Context, buf []byte, n int) error {
	if err := s.drv.Write(ctx, buf); err != nil {
		s.logger.Error("driver write failed", zap.Int("bytes", len(buf)), zap.Error(err))
		return err
	}
	s.buffersWritten.Add(1)
	s.framesWritten.Add(uint64(n))
	s.logger.Debug("wrote frames", zap.Int("frames", n), zap.Int("bytes", len(buf)))
	return nil
}

// ReadFrames reads one driver buffer and decodes it. When the buffer is
// malformed, the frames decoded before the fault are returned with the
// error and nothing is captured.
func (s *Session) ReadFrames(ctx context.Context) ([]frame.Frame, error) {
	buf, err := s.drv.Read(ctx)
	if err != nil {
		return nil, err
	}
	s.buffersRead.Add(1)
	frames, err := frame.DecodeAll(buf)
	s.framesRead.Add(uint64(len(frames)))
	if err != nil {
		s.logger.Warn("malformed driver buffer",
			zap.Int("bytes", len(buf)),
			zap.Int("decoded", len(frames)),
			zap.Error(err))
		return frames, err
	}
	if s.sink != nil {
		off, err := s.sink.Append(buf)
		if err != nil {
			s.logger.Error("capture append failed", zap.Error(err))
			return frames, err
		}
		s.captured.Add(1)
		s.logger.Debug("captured buffer", zap.Uint64("offset", off), zap.Int("frames", len(frames)))
	}
	return frames, nil
}

// ReadViews reads one buffer and converts each record to its typed view.
func (s *Session) ReadViews(ctx context.Context) ([]protocol.View, error) {
	frames, err := s.ReadFrames(ctx)
	views := make([]protocol.View, 0, len(frames))
	for _, f := range frames {
		v, verr := protocol.FromRecord(f)
		if verr != nil {
			return views, verr
		}
		views = append(views, v)
	}
	return views, err
}

func (s *Session) Stats() Stats {
	return Stats{
		BuffersWritten: s.buffersWritten.Load(),
		FramesWritten:  s.framesWritten.Load(),
		BuffersRead:    s.buffersRead.Load(),
		FramesRead:     s.framesRead.Load(),
		Captured:       s.captured.Load(),
	}
}

// Close closes the underlying driver.
func (s *Session) Close() error {
	st := s.Stats()
	s.logger.Info("session closed",
		zap.Uint64("frames_written", st.FramesWritten),
		zap.Uint64("frames_read", st.FramesRead),
		zap.Uint64("captured", st.Captured))
	return s.drv.Close()
}
