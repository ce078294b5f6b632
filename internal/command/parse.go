// internal/command/parse.go
package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tamzrod/connect-client/internal/bigbuffer"
)

// Command names as sent by the server.
const (
	nameSendInfo             = "SEND_INFO"
	nameSendJobInfo          = "SEND_JOB_INFO"
	nameSendFileInfo         = "SEND_FILE_INFO"
	nameSendTransferInfo     = "SEND_TRANSFER_INFO"
	namePausePrint           = "PAUSE_PRINT"
	nameResumePrint          = "RESUME_PRINT"
	nameStopPrint            = "STOP_PRINT"
	nameStartPrint           = "START_PRINT"
	nameSetPrinterReady      = "SET_PRINTER_READY"
	nameCancelPrinterReady   = "CANCEL_PRINTER_READY"
	nameStartConnectDownload = "START_CONNECT_DOWNLOAD"
)

// envelope is the structural shape:
//
//	{"command": NAME, "args": [...], "kwargs": {...}}
type envelope struct {
	Command json.RawMessage `json:"command"`
	Args    json.RawMessage `json:"args"`
	Kwargs  json.RawMessage `json:"kwargs"`
}

// ParseGcode wraps a gcode body into a command.
//
// tok is the claim on the shared buffer; nil (or released) means the buffer
// is busy. The token is either consumed into the result or released before
// returning.
func ParseGcode(id ID, body []byte, tok *bigbuffer.Token) Command {
	defer tok.Release()

	if len(body) > bigbuffer.GcodeMaxLen {
		return Command{ID: id, Data: GcodeTooLarge{}}
	}
	if !tok.Held() {
		return Command{ID: id, Data: ProcessingOther{}}
	}
	if err := tok.SetGcode(body); err != nil {
		return Command{ID: id, Data: GcodeTooLarge{}}
	}

	return Command{ID: id, Data: Gcode{Size: len(body), Buffer: tok.Share()}}
}

// ParseJSON decodes a structural JSON command.
//
// Malformed input yields Broken, an unknown name yields Unknown. Same token
// contract as ParseGcode.
func ParseJSON(id ID, body []byte, tok *bigbuffer.Token) Command {
	defer tok.Release()

	broken := func(reason string) Command {
		return Command{ID: id, Data: Broken{Reason: reason}}
	}

	if !json.Valid(body) {
		return broken("invalid JSON")
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return broken("expected JSON object")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return broken("malformed command")
	}
	if len(env.Command) == 0 || isNull(env.Command) {
		return broken("missing command")
	}

	var name string
	if err := json.Unmarshal(env.Command, &name); err != nil {
		return broken("command must be a string")
	}

	args, err := parseArguments(env)
	if err != nil {
		return broken(err.Error())
	}

	data, err := decodeData(name, args, tok)
	if err != nil {
		return broken(err.Error())
	}
	return Command{ID: id, Data: data}
}

func decodeData(name string, args arguments, tok *bigbuffer.Token) (Data, error) {
	switch name {
	case nameSendInfo:
		return SendInfo{}, nil
	case nameSendTransferInfo:
		return SendTransferInfo{}, nil
	case namePausePrint:
		return PausePrint{}, nil
	case nameResumePrint:
		return ResumePrint{}, nil
	case nameStopPrint:
		return StopPrint{}, nil
	case nameSetPrinterReady:
		return SetPrinterReady{}, nil
	case nameCancelPrinterReady:
		return CancelPrinterReady{}, nil

	case nameSendJobInfo:
		jobID, err := args.number(0, "job_id", math.MaxUint16)
		if err != nil {
			return nil, fmt.Errorf("job id: %w", err)
		}
		return SendJobInfo{JobID: uint16(jobID)}, nil

	case nameSendFileInfo:
		buf, err := stagePath(args, tok)
		if err != nil || buf == nil {
			return processingOrBroken(err)
		}
		return SendFileInfo{Buffer: buf}, nil

	case nameStartPrint:
		buf, err := stagePath(args, tok)
		if err != nil || buf == nil {
			return processingOrBroken(err)
		}
		return StartPrint{Buffer: buf}, nil

	case nameStartConnectDownload:
		team, err := args.number(-1, "team_id", math.MaxUint64)
		if err != nil {
			return nil, fmt.Errorf("team id: %w", err)
		}
		hash, err := args.text(-1, "hash")
		if err != nil {
			return nil, fmt.Errorf("hash: %w", err)
		}
		if len(hash) > bigbuffer.HashSize-1 {
			return nil, errors.New("hash too long")
		}
		path, err := args.text(-1, "path")
		if err != nil {
			return nil, fmt.Errorf("path: %w", err)
		}
		if !tok.Held() {
			return ProcessingOther{}, nil
		}
		if err := tok.SetCommandPath(path); err != nil {
			return nil, errors.New("path too long")
		}
		if err := tok.SetDownloadHash(hash); err != nil {
			return nil, errors.New("hash too long")
		}
		return StartConnectDownload{Team: team, Buffer: tok.Share()}, nil

	default:
		return Unknown{}, nil
	}
}

// stagePath copies the path argument into the buffer. A nil result with a
// nil error means the buffer is busy.
func stagePath(args arguments, tok *bigbuffer.Token) (*bigbuffer.Shared, error) {
	path, err := args.text(0, "path")
	if err != nil {
		return nil, fmt.Errorf("path: %w", err)
	}
	if !tok.Held() {
		return nil, nil
	}
	if err := tok.SetCommandPath(path); err != nil {
		return nil, errors.New("path too long")
	}
	return tok.Share(), nil
}

func processingOrBroken(err error) (Data, error) {
	if err != nil {
		return nil, err
	}
	return ProcessingOther{}, nil
}

// ---- ARGUMENTS ----

var (
	errMissing   = errors.New("missing")
	errWrongType = errors.New("wrong type")
)

type arguments struct {
	positional []json.RawMessage
	keyed      map[string]json.RawMessage
}

func parseArguments(env envelope) (arguments, error) {
	var a arguments
	if len(env.Args) > 0 && !isNull(env.Args) {
		if err := json.Unmarshal(env.Args, &a.positional); err != nil {
			return a, errors.New("args must be an array")
		}
	}
	if len(env.Kwargs) > 0 && !isNull(env.Kwargs) {
		if err := json.Unmarshal(env.Kwargs, &a.keyed); err != nil {
			return a, errors.New("kwargs must be an object")
		}
	}
	return a, nil
}

// lookup prefers the positional argument; pos < 0 means keyed only.
func (a arguments) lookup(pos int, key string) (json.RawMessage, bool) {
	if pos >= 0 && pos < len(a.positional) {
		return a.positional[pos], true
	}
	v, ok := a.keyed[key]
	return v, ok
}

func (a arguments) number(pos int, key string, limit uint64) (uint64, error) {
	raw, ok := a.lookup(pos, key)
	if !ok {
		return 0, errMissing
	}
	var v uint64
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		return 0, errWrongType
	}
	if v > limit {
		return 0, errors.New("out of range")
	}
	return v, nil
}

func (a arguments) text(pos int, key string) (string, error) {
	raw, ok := a.lookup(pos, key)
	if !ok {
		return "", errMissing
	}
	var v string
	if isNull(raw) || json.Unmarshal(raw, &v) != nil {
		return "", errWrongType
	}
	return v, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
