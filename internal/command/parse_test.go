// internal/command/parse_test.go
package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
)

// parse claims a fresh buffer and parses body as JSON with id 13.
func parse(t *testing.T, buf *bigbuffer.Buffer, body string) Command {
	t.Helper()
	tok, _ := buf.Claim()
	cmd := ParseJSON(13, []byte(body), tok)
	require.Equal(t, ID(13), cmd.ID)
	return cmd
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, "This is not a JSON")
	require.IsType(t, Broken{}, cmd.Data)
	assert.Equal(t, "invalid JSON", cmd.Data.(Broken).Reason)
	assert.False(t, buf.Claimed())
}

func TestParseJSON_UnknownCommand(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, `{"command": "SOME_CRAP"}`)
	assert.IsType(t, Unknown{}, cmd.Data)
	assert.False(t, buf.Claimed())
}

func TestParseJSON_ArrayIsBroken(t *testing.T) {
	cmd := parse(t, bigbuffer.New(), `["hello"]`)
	assert.IsType(t, Broken{}, cmd.Data)
}

func TestParseJSON_MissingOrWrongCommandField(t *testing.T) {
	for _, body := range []string{`{}`, `{"command": null}`, `{"command": 5}`, `{"command": "SEND_INFO", "args": {}}`, `{"command": "SEND_INFO", "kwargs": []}`} {
		cmd := parse(t, bigbuffer.New(), body)
		assert.IsType(t, Broken{}, cmd.Data, body)
	}
}

func TestParseJSON_SendInfo(t *testing.T) {
	cmd := parse(t, bigbuffer.New(), `{"command": "SEND_INFO"}`)
	assert.IsType(t, SendInfo{}, cmd.Data)

	cmd = parse(t, bigbuffer.New(), `{"command": "SEND_INFO", "args": [], "kwargs": {}}`)
	assert.IsType(t, SendInfo{}, cmd.Data)
}

func TestParseJSON_SendJobInfo(t *testing.T) {
	cmd := parse(t, bigbuffer.New(), `{"command": "SEND_JOB_INFO", "args": [42], "kwargs": {"job_id": 42}}`)
	require.IsType(t, SendJobInfo{}, cmd.Data)
	assert.Equal(t, uint16(42), cmd.Data.(SendJobInfo).JobID)

	cmd = parse(t, bigbuffer.New(), `{"command": "SEND_JOB_INFO", "kwargs": {"job_id": 7}}`)
	require.IsType(t, SendJobInfo{}, cmd.Data)
	assert.Equal(t, uint16(7), cmd.Data.(SendJobInfo).JobID)
}

func TestParseJSON_SendJobInfoBadArgs(t *testing.T) {
	for _, body := range []string{
		`{"command": "SEND_JOB_INFO", "args": [], "kwargs": {}}`,
		`{"command": "SEND_JOB_INFO", "args": ["42"]}`,
		`{"command": "SEND_JOB_INFO", "args": [null]}`,
		`{"command": "SEND_JOB_INFO", "args": [-1]}`,
		`{"command": "SEND_JOB_INFO", "args": [70000]}`,
		`{"command": "SEND_JOB_INFO", "args": [1.5]}`,
	} {
		cmd := parse(t, bigbuffer.New(), body)
		assert.IsType(t, Broken{}, cmd.Data, body)
	}
}

func TestParseJSON_SimpleVariants(t *testing.T) {
	cases := map[string]Data{
		"SEND_TRANSFER_INFO":   SendTransferInfo{},
		"PAUSE_PRINT":          PausePrint{},
		"RESUME_PRINT":         ResumePrint{},
		"STOP_PRINT":           StopPrint{},
		"SET_PRINTER_READY":    SetPrinterReady{},
		"CANCEL_PRINTER_READY": CancelPrinterReady{},
	}
	for name, want := range cases {
		buf := bigbuffer.New()
		cmd := parse(t, buf, `{"command": "`+name+`"}`)
		assert.Equal(t, want, cmd.Data, name)
		assert.False(t, buf.Claimed(), name)
	}
}

func TestParseJSON_StartPrintStagesPath(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, `{"command": "START_PRINT", "args": ["/usb/box.gcode"]}`)
	require.IsType(t, StartPrint{}, cmd.Data)
	assert.True(t, buf.Claimed())
	assert.Equal(t, bigbuffer.KindCommandDetails, buf.Kind())

	path, ok := cmd.Data.(StartPrint).Buffer.Path()
	require.True(t, ok)
	assert.Equal(t, "/usb/box.gcode", path)

	cmd.Release()
	assert.False(t, buf.Claimed())
}

func TestParseJSON_SendFileInfoKeyedPath(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, `{"command": "SEND_FILE_INFO", "kwargs": {"path": "/usb/a.gcode"}}`)
	require.IsType(t, SendFileInfo{}, cmd.Data)
	path, _ := cmd.Buffer().Path()
	assert.Equal(t, "/usb/a.gcode", path)
	cmd.Release()
}

func TestParseJSON_PathTooLong(t *testing.T) {
	buf := bigbuffer.New()
	long := strings.Repeat("a", bigbuffer.LongPathLen+1)
	cmd := parse(t, buf, `{"command": "START_PRINT", "args": ["`+long+`"]}`)
	assert.Equal(t, Broken{Reason: "path too long"}, cmd.Data)
	assert.False(t, buf.Claimed())
}

func TestParseJSON_StartConnectDownload(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, `{"command": "START_CONNECT_DOWNLOAD", "kwargs": {"path": "/usb/dl.gcode", "team_id": 12345678901, "hash": "abcdef"}}`)
	require.IsType(t, StartConnectDownload{}, cmd.Data)
	dl := cmd.Data.(StartConnectDownload)
	assert.Equal(t, uint64(12345678901), dl.Team)

	path, _ := dl.Buffer.Path()
	hash, ok := dl.Buffer.DownloadHash()
	require.True(t, ok)
	assert.Equal(t, "/usb/dl.gcode", path)
	assert.Equal(t, "abcdef", hash)
	cmd.Release()
	assert.False(t, buf.Claimed())
}

func TestParseJSON_StartConnectDownloadMissingHash(t *testing.T) {
	buf := bigbuffer.New()
	cmd := parse(t, buf, `{"command": "START_CONNECT_DOWNLOAD", "kwargs": {"path": "/usb/dl.gcode", "team_id": 1}}`)
	assert.IsType(t, Broken{}, cmd.Data)
	assert.False(t, buf.Claimed())
}

func TestParseJSON_BusyBufferGivesProcessingOther(t *testing.T) {
	buf := bigbuffer.New()
	first := parse(t, buf, `{"command": "START_PRINT", "args": ["/usb/first.gcode"]}`)
	require.IsType(t, StartPrint{}, first.Data)

	second := parse(t, buf, `{"command": "START_PRINT", "args": ["/usb/second.gcode"]}`)
	assert.IsType(t, ProcessingOther{}, second.Data)

	// the first payload is untouched
	path, _ := first.Buffer().Path()
	assert.Equal(t, "/usb/first.gcode", path)

	// commands that need no buffer still parse
	info := parse(t, buf, `{"command": "SEND_INFO"}`)
	assert.IsType(t, SendInfo{}, info.Data)

	first.Release()
	assert.False(t, buf.Claimed())
}

func TestParseJSON_Deterministic(t *testing.T) {
	body := `{"command": "SEND_JOB_INFO", "args": [3]}`
	a := parse(t, bigbuffer.New(), body)
	b := parse(t, bigbuffer.New(), body)
	assert.Equal(t, a, b)
}

func TestParseGcode(t *testing.T) {
	buf := bigbuffer.New()
	tok, err := buf.Claim()
	require.NoError(t, err)

	cmd := ParseGcode(5, []byte("G28\nG1 X10\n"), tok)
	require.IsType(t, Gcode{}, cmd.Data)
	g := cmd.Data.(Gcode)
	assert.Equal(t, 11, g.Size)
	assert.Equal(t, "G28\nG1 X10\n", string(g.Buffer.Gcode()))
	assert.False(t, tok.Held())

	cmd.Release()
	assert.False(t, buf.Claimed())
}

func TestParseGcode_TooLarge(t *testing.T) {
	buf := bigbuffer.New()
	tok, _ := buf.Claim()

	cmd := ParseGcode(5, make([]byte, bigbuffer.GcodeMaxLen+1), tok)
	assert.IsType(t, GcodeTooLarge{}, cmd.Data)
	assert.False(t, buf.Claimed())
}

func TestParseGcode_Busy(t *testing.T) {
	cmd := ParseGcode(5, []byte("G28"), nil)
	assert.IsType(t, ProcessingOther{}, cmd.Data)
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "7:send_info", Command{ID: 7, Data: SendInfo{}}.String())
	assert.Equal(t, "7:broken(x)", Command{ID: 7, Data: Broken{Reason: "x"}}.String())
}
