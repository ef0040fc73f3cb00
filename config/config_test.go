package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/busframe/segment"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	c, err := FromViper(viper.New())
	require.NoError(t, err)
	require.Equal(t, "info", c.LogLevel)
	require.Equal(t, "/tmp/busframe", c.Capture.Dir)
	require.Equal(t, segment.Config{
		MaxSegmentBytes:    segment.DefaultMaxSegmentBytes,
		IndexIntervalBytes: segment.DefaultIndexIntervalBytes,
	}, c.Capture.SegmentConfig())
	require.Equal(t, "127.0.0.1:9700", c.Bridge.Addr)
	require.Equal(t, 4*1024*1024, c.Bridge.MaxBatchBytes)
	require.True(t, c.Bridge.Echo)
}

func TestFromViperFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busframe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
capture:
  dir: /var/lib/busframe
  max_segment_bytes: 65536
bridge:
  addr: 0.0.0.0:9800
  echo: false
`), 0644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "debug", c.LogLevel)
	require.Equal(t, "/var/lib/busframe", c.Capture.Dir)
	require.Equal(t, uint64(65536), c.Capture.MaxSegmentBytes)
	require.Equal(t, uint64(segment.DefaultIndexIntervalBytes), c.Capture.IndexIntervalBytes)
	require.Equal(t, "0.0.0.0:9800", c.Bridge.Addr)
	require.False(t, c.Bridge.Echo)

	logger, err := c.NewLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestFromViperEnv(t *testing.T) {
	t.Setenv("BUSFRAME_LOG_LEVEL", "warn")
	v := viper.New()
	v.SetEnvPrefix("busframe")
	v.AutomaticEnv()

	c, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, "warn", c.LogLevel)
}

func TestFromViperRejectsBadLevel(t *testing.T) {
	v := viper.New()
	v.Set("log_level", "loud")
	_, err := FromViper(v)
	require.Error(t, err)

	v = viper.New()
	v.Set("bridge.max_batch_bytes", -1)
	_, err = FromViper(v)
	require.Error(t, err)
}
