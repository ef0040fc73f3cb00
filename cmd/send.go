package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/mohitkumar/busframe/client"
	"github.com/mohitkumar/busframe/frame"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var (
		addrs   string
		format  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send <script.toml>",
		Short: "Transmit a TOML frame script through a bridge and print the reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := scriptBuffer(args[0])
			if err != nil {
				return err
			}
			frames, err := frame.DecodeAll(buf)
			if err != nil {
				return err
			}
			c, err := client.DialAny(strings.Split(addrs, ","))
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			reply, err := c.Transmit(ctx, frames...)
			if err != nil {
				return err
			}
			return writeFrames(cmd.OutOrStdout(), reply, format)
		},
	}
	cmd.Flags().StringVar(&addrs, "addr", "127.0.0.1:9700", "bridge addresses, comma separated; the first reachable one is used")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: json, cbor or text")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "round-trip timeout")
	return cmd
}
