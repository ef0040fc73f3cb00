package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mohitkumar/busframe/capture"
	"github.com/mohitkumar/busframe/frame"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCaptureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Append to, inspect and replay a capture log",
	}

	var appendHex bool
	appendCmd := &cobra.Command{
		Use:   "append [file]",
		Short: "Append one driver buffer to the capture",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			buf, err := readInput(path, cmd.InOrStdin(), appendHex)
			if err != nil {
				return err
			}
			return withCapture(func(l *capture.Log, logger *zap.Logger) error {
				off, err := l.Append(buf)
				if err != nil {
					return err
				}
				logger.Info("buffer captured", zap.Uint64("offset", off))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "offset=%d\n", off)
				return err
			})
		},
	}
	appendCmd.Flags().BoolVar(&appendHex, "hex", false, "input is hex text")

	var (
		from   uint64
		format string
	)
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Print every captured frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapture(func(l *capture.Log, _ *zap.Logger) error {
				return replay(cmd.OutOrStdout(), l, from, format)
			})
		},
	}
	replayCmd.Flags().Uint64Var(&from, "from", 0, "first buffer offset to replay")
	replayCmd.Flags().StringVar(&format, "format", formatJSON, "output format: json, cbor or text")

	frameCmd := &cobra.Command{
		Use:   "frame <ordinal>",
		Short: "Print one captured frame by its capture-wide ordinal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordinal, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return err
			}
			return withCapture(func(l *capture.Log, _ *zap.Logger) error {
				f, err := l.FrameAt(ordinal)
				if err != nil {
					return err
				}
				return writeFrames(cmd.OutOrStdout(), []frame.Frame{f}, formatText)
			})
		},
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show capture offsets and sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCapture(func(l *capture.Log, _ *zap.Logger) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "dir=%s segments=%d lowest=%d next=%d frames=%d\n",
					l.Dir, l.SegmentCount(), l.LowestOffset(), l.NextOffset(), l.FrameCount())
				return err
			})
		},
	}

	truncateCmd := &cobra.Command{
		Use:   "truncate <lowest-offset>",
		Short: "Drop whole segments below an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lowest, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return err
			}
			return withCapture(func(l *capture.Log, logger *zap.Logger) error {
				if err := l.Truncate(lowest); err != nil {
					return err
				}
				logger.Info("capture truncated", zap.Uint64("lowest", l.LowestOffset()))
				return nil
			})
		},
	}

	cmd.AddCommand(appendCmd, replayCmd, frameCmd, infoCmd, truncateCmd)
	return cmd
}

func withCapture(fn func(l *capture.Log, logger *zap.Logger) error) error {
	c, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()
	l, err := capture.Open(c.Capture.Dir, c.Capture.SegmentConfig(), logger)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l, logger)
}

func replay(w io.Writer, l *capture.Log, from uint64, format string) error {
	if format == formatCBOR {
		var frames []frame.Frame
		err := l.Replay(func(offset uint64, f frame.Frame) error {
			if offset >= from {
				frames = append(frames, f)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return writeFrames(w, frames, formatCBOR)
	}
	return l.Replay(func(offset uint64, f frame.Frame) error {
		if offset < from {
			return nil
		}
		return writeFrames(w, []frame.Frame{f}, format)
	})
}
