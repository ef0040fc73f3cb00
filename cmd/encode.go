package cmd

import (
	"io"

	"github.com/mohitkumar/busframe/protocol"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var asHex bool
	cmd := &cobra.Command{
		Use:   "encode <script.toml>",
		Short: "Encode a TOML frame script into one driver buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return encodeScript(cmd.OutOrStdout(), args[0], asHex)
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "write hex text instead of raw bytes")
	return cmd
}

func encodeScript(w io.Writer, path string, asHex bool) error {
	buf, err := scriptBuffer(path)
	if err != nil {
		return err
	}
	return writeOutput(w, buf, asHex)
}

func scriptBuffer(path string) ([]byte, error) {
	views, err := protocol.LoadScript(path)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(views))
	for i, v := range views {
		args[i] = v
	}
	var codec protocol.Codec
	return codec.Marshal(args...)
}
