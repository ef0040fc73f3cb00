package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohitkumar/busframe/capture"
	"github.com/mohitkumar/busframe/frame"
	"github.com/mohitkumar/busframe/protocol"
	"github.com/mohitkumar/busframe/segment"
	"github.com/mohitkumar/busframe/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const script = `
[[frame]]
identifier = 0x123
payload = "0102"

[[frame]]
type = "J1939_DATA"
identifier = 0x18FEF100
payload = "AA"
`

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.toml")
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))
	return path
}

func TestReadInputHex(t *testing.T) {
	got, err := readInput("-", strings.NewReader("01 02\n0a0B\n"), true)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 0x0A, 0x0B}, got)

	_, err = readInput("", strings.NewReader("zz"), true)
	require.Error(t, err)
}

func TestEncodeThenDecode(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, encodeScript(&out, writeScript(t), true))

	buf, err := readInput("", &out, true)
	require.NoError(t, err)
	require.Len(t, buf, 48)

	var decoded bytes.Buffer
	require.NoError(t, decodeBuffer(&decoded, buf, formatJSON))
	lines := strings.Split(strings.TrimSpace(decoded.String()), "\n")
	require.Len(t, lines, 2)

	var rec protocol.ExportRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "CAN_DATA", rec.Type)
	require.Equal(t, uint32(0x123), rec.Identifier)
	require.Equal(t, protocol.HexBytes{1, 2}, rec.Payload)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec))
	require.Equal(t, "J1939_DATA", rec.Type)
}

func TestDecodeCBOR(t *testing.T) {
	buf, err := scriptBuffer(writeScript(t))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decodeBuffer(&out, buf, formatCBOR))
	frames, err := protocol.UnmarshalCBOR(out.Bytes())
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, frame.TypeJ1939Data, frames[1].Type)
}

func TestDecodeMalformedStillPrints(t *testing.T) {
	buf, err := scriptBuffer(writeScript(t))
	require.NoError(t, err)

	var out bytes.Buffer
	err = decodeBuffer(&out, append(buf, 0xFF), formatText)
	require.ErrorIs(t, err, frame.ErrMalformedBuffer)
	require.Equal(t, 2, strings.Count(out.String(), "\n"))
	require.Contains(t, out.String(), "CAN_DATA 123 [2] 01 02")
}

func TestDecodeUnknownFormat(t *testing.T) {
	err := decodeBuffer(&bytes.Buffer{}, nil, "xml")
	require.Error(t, err)
}

func TestReplayFrom(t *testing.T) {
	l, err := capture.Open(t.TempDir(), segment.Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 3; i++ {
		buf, err := frame.EncodeAll(frame.Frame{Identifier: uint32(i), Payload: []byte{byte(i)}})
		require.NoError(t, err)
		_, err = l.Append(buf)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, replay(&out, l, 1, formatText))
	require.Equal(t, 2, strings.Count(out.String(), "\n"))

	out.Reset()
	require.NoError(t, replay(&out, l, 2, formatCBOR))
	frames, err := protocol.UnmarshalCBOR(out.Bytes())
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, uint32(2), frames[0].Identifier)
}

func TestSendThroughBridge(t *testing.T) {
	ts := testutil.SetupTestServer(t, true)

	cmd := newSendCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--addr", "127.0.0.1:1," + ts.Addr, writeScript(t)})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "CAN_DATA 123 [2] 01 02 echo")
	require.Contains(t, lines[1], "J1939_DATA")
	require.Equal(t, uint64(1), ts.Capture.NextOffset())
}
