package config

import (
	"fmt"

	"github.com/mohitkumar/busframe/segment"
	"github.com/mohitkumar/busframe/transport"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel string
	Capture  CaptureConfig
	Bridge   BridgeConfig
}

// CaptureConfig locates the capture log and bounds its segments.
type CaptureConfig struct {
	Dir                string
	MaxSegmentBytes    uint64
	IndexIntervalBytes uint64
}

type BridgeConfig struct {
	Addr string
	// MaxBatchBytes caps one batch message on the wire (0 = transport default).
	MaxBatchBytes int
	// Echo makes the bridge driver return transmitted CAN and LIN frames
	// marked with the transmit-echo flag.
	Echo bool
}

func (c CaptureConfig) SegmentConfig() segment.Config {
	return segment.Config{
		MaxSegmentBytes:    c.MaxSegmentBytes,
		IndexIntervalBytes: c.IndexIntervalBytes,
	}
}

// SetDefaults registers default values for every key FromViper reads.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("capture.dir", "/tmp/busframe")
	v.SetDefault("capture.max_segment_bytes", segment.DefaultMaxSegmentBytes)
	v.SetDefault("capture.index_interval_bytes", segment.DefaultIndexIntervalBytes)
	v.SetDefault("bridge.addr", "127.0.0.1:9700")
	v.SetDefault("bridge.max_batch_bytes", transport.DefaultMaxMessageSize)
	v.SetDefault("bridge.echo", true)
}

// FromViper builds a Config from v, falling back to defaults for unset keys.
func FromViper(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	c := Config{
		LogLevel: v.GetString("log_level"),
		Capture: CaptureConfig{
			Dir:                v.GetString("capture.dir"),
			MaxSegmentBytes:    v.GetUint64("capture.max_segment_bytes"),
			IndexIntervalBytes: v.GetUint64("capture.index_interval_bytes"),
		},
		Bridge: BridgeConfig{
			Addr:          v.GetString("bridge.addr"),
			MaxBatchBytes: v.GetInt("bridge.max_batch_bytes"),
			Echo:          v.GetBool("bridge.echo"),
		},
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return Config{}, fmt.Errorf("log_level: %w", err)
	}
	if c.Bridge.MaxBatchBytes < 0 {
		return Config{}, fmt.Errorf("bridge.max_batch_bytes: negative value %d", c.Bridge.MaxBatchBytes)
	}
	return c, nil
}

// NewLogger builds a production zap logger at c.LogLevel, or a development
// logger when the level is debug.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
