// internal/status/link.go
package status

import "time"

// Link is the state of the connection to the server.
type Link uint16

const (
	// LinkUnknown: boot, nothing attempted yet.
	LinkUnknown Link = 0
	// LinkOK: the last exchange succeeded.
	LinkOK Link = 1
	// LinkError: the last exchange failed; see Code.
	LinkError Link = 2
	// LinkConnecting: a new transport is being established.
	LinkConnecting Link = 3
	// LinkOff: the link is disabled in configuration.
	LinkOff Link = 4
)

func (l Link) String() string {
	switch l {
	case LinkOK:
		return "ok"
	case LinkError:
		return "error"
	case LinkConnecting:
		return "connecting"
	case LinkOff:
		return "off"
	default:
		return "unknown"
	}
}

// MarshalText renders the link by name in JSON.
func (l Link) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Code classifies the last error.
type Code uint16

const (
	CodeNone Code = iota
	CodeGeneric
	CodeConnect
	CodeResponseTooLong
	CodeUnexpectedResponse
	CodeDecode
	CodeTransport
	CodeRender
)

func (c Code) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeConnect:
		return "connect"
	case CodeResponseTooLong:
		return "response_too_long"
	case CodeUnexpectedResponse:
		return "unexpected_response"
	case CodeDecode:
		return "decode"
	case CodeTransport:
		return "transport"
	case CodeRender:
		return "render"
	default:
		return "generic"
	}
}

func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Online is the observed link status, safe to copy between goroutines.
type Online struct {
	Link      Link      `json:"link"`
	Code      Code      `json:"code"`
	LastError string    `json:"last_error,omitempty"`
	LastOK    time.Time `json:"last_ok,omitempty"`
	Since     time.Time `json:"since"`
}
