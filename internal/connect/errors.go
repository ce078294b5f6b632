// internal/connect/errors.go
package connect

import (
	"errors"
	"io"
	"net"

	"github.com/tamzrod/connect-client/internal/httpc"
	"github.com/tamzrod/connect-client/internal/request"
	"github.com/tamzrod/connect-client/internal/status"
)

var (
	// ErrResponseTooLong means the response body exceeds MaxResponseLen.
	// The body was not read; the connection is unusable.
	ErrResponseTooLong = errors.New("connect: response too long")

	// ErrUnexpectedResponse covers statuses we do not handle and a
	// success without a command id.
	ErrUnexpectedResponse = errors.New("connect: unexpected response")

	// ErrNoConnection wraps failures to establish the transport.
	ErrNoConnection = errors.New("connect: no connection")
)

// Classify maps a cycle error to a status code.
func Classify(err error) status.Code {
	var ne net.Error

	switch {
	case err == nil:
		return status.CodeNone
	case errors.Is(err, ErrNoConnection):
		return status.CodeConnect
	case errors.Is(err, ErrResponseTooLong):
		return status.CodeResponseTooLong
	case errors.Is(err, ErrUnexpectedResponse):
		return status.CodeUnexpectedResponse
	case errors.Is(err, httpc.ErrMalformedResponse), errors.Is(err, io.ErrUnexpectedEOF):
		return status.CodeDecode
	case errors.Is(err, request.ErrBufferTooSmall), errors.Is(err, httpc.ErrBodyTooLarge):
		return status.CodeRender
	case errors.As(err, &ne), errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		return status.CodeTransport
	default:
		return status.CodeGeneric
	}
}
