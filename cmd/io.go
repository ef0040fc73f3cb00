package cmd

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
)

// readInput reads path, or stdin when path is empty or "-". With asHex the
// content is hex text; whitespace is ignored.
func readInput(path string, stdin io.Reader, asHex bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !asHex {
		return data, nil
	}
	compact := bytes.Join(bytes.Fields(data), nil)
	out := make([]byte, hex.DecodedLen(len(compact)))
	n, err := hex.Decode(out, compact)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

func writeOutput(w io.Writer, data []byte, asHex bool) error {
	if asHex {
		_, err := io.WriteString(w, hex.EncodeToString(data)+"\n")
		return err
	}
	_, err := w.Write(data)
	return err
}
