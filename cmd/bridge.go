package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohitkumar/busframe/capture"
	"github.com/mohitkumar/busframe/driver"
	"github.com/mohitkumar/busframe/session"
	"github.com/mohitkumar/busframe/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newBridgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve a loopback interface over TCP, capturing all bus traffic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			bus := driver.NewLoopbackBus()
			defer bus.Close()
			b := session.NewBridge(bus, l, c.Bridge.Echo, logger)

			tr := transport.NewTransport(
				transport.WithLogger(logger),
				transport.WithMaxMessageSize(c.Bridge.MaxBatchBytes),
			)
			ln, err := tr.Listen(c.Bridge.Addr)
			if err != nil {
				return err
			}
			logger.Info("bridge listening",
				zap.String("addr", ln.Addr().String()),
				zap.String("capture_dir", c.Capture.Dir),
				zap.Bool("echo", c.Bridge.Echo))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return tr.Serve(ctx, ln, b.Handle)
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:9700", "TCP listen address")
	cmd.Flags().Bool("echo", true, "return transmitted frames with the echo flag")
	_ = viper.BindPFlag("bridge.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("bridge.echo", cmd.Flags().Lookup("echo"))
	return cmd
}
