package cmd

import (
	"fmt"
	"io"

	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
	"github.com/spf13/cobra"
)

const (
	formatJSON = "json"
	formatCBOR = "cbor"
	formatText = "text"
)

func newDecodeCmd() *cobra.Command {
	var (
		asHex  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a driver buffer into frame records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			buf, err := readInput(path, cmd.InOrStdin(), asHex)
			if err != nil {
				return err
			}
			return decodeBuffer(cmd.OutOrStdout(), buf, format)
		},
	}
	cmd.Flags().BoolVar(&asHex, "hex", false, "input is hex text")
	cmd.Flags().StringVar(&format, "format", formatJSON, "output format: json, cbor or text")
	return cmd
}

// decodeBuffer writes every frame in buf to w. Frames decoded before a
// malformed tail are still written, then the error is returned.
func decodeBuffer(w io.Writer, buf []byte, format string) error {
	frames, decodeErr := frame.DecodeAll(buf)
	if err := writeFrames(w, frames, format); err != nil {
		return err
	}
	return decodeErr
}

func writeFrames(w io.Writer, frames []frame.Frame, format string) error {
	switch format {
	case formatJSON:
		for _, f := range frames {
			line, err := protocol.MarshalJSON(protocol.Export(f))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
		}
	case formatCBOR:
		data, err := protocol.MarshalCBOR(frames)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case formatText:
		for _, f := range frames {
			if _, err := fmt.Fprintln(w, describe(f)); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

// describe renders one record, using its typed view when it has one.
func describe(f frame.Frame) string {
	v, err := protocol.FromRecord(f)
	if err != nil {
		return fmt.Sprintf("%d %s id=0x%X payload=% X (%v)", f.Timestamp, f.Type, f.Identifier, f.Payload, err)
	}
	switch v := v.(type) {
	case protocol.CANFrame:
		id := fmt.Sprintf("%03X", v.Identifier)
		if v.Extended {
			id = fmt.Sprintf("%08X", v.Identifier)
		}
		echo := ""
		if v.Echo {
			echo = " echo"
		}
		return fmt.Sprintf("%d %s %s [%d] % X%s", v.Timestamp, v.Type, id, len(v.Payload), v.Payload, echo)
	case protocol.RawFrame:
		return fmt.Sprintf("%d %s id=0x%X flags=0x%02X info=0x%02X [%d] % X",
			f.Timestamp, f.Type, f.Identifier, f.Flags, f.Info, len(f.Payload), f.Payload)
	default:
		return fmt.Sprintf("%d %s %+v", f.Timestamp, f.Type, v)
	}
}
