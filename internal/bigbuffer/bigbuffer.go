// internal/bigbuffer/bigbuffer.go
package bigbuffer

import "errors"

// One region, several mutually exclusive interpretations.
//
// Either the server hands us something long (a gcode body, a path, download
// details) or we are sending something long (paths of the current job), never
// both at the same time. The region takes turns.
//
// Access is single-threaded: only the communication loop and what it calls
// synchronously touch the buffer. There is no lock.

// ---- LAYOUT ----

const (
	// PathLen is the capacity of a full file path.
	PathLen = 256

	// NameLen is the capacity of a file name.
	NameLen = 96

	// LongPathLen is the capacity of a path received from the server.
	LongPathLen = PathLen + NameLen

	// HashSize fits a file hash of up to 28 chars plus a terminator.
	HashSize = 29

	// GcodeMaxLen is the largest gcode body that can be staged.
	GcodeMaxLen = 512
)

const regionSize = max(PathLen+NameLen, LongPathLen+HashSize, GcodeMaxLen)

// Kind tells how the region is currently interpreted.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindPathInfo
	KindCommandDetails
	KindGcode
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindPathInfo:
		return "path_info"
	case KindCommandDetails:
		return "command_details"
	case KindGcode:
		return "gcode"
	default:
		return "invalid"
	}
}

var (
	// ErrBusy is returned by Claim while another handle owns the region.
	ErrBusy = errors.New("bigbuffer: busy")

	// ErrTooLarge means the payload does not fit the selected layout.
	ErrTooLarge = errors.New("bigbuffer: payload too large")

	// ErrReleased means the handle no longer owns the region.
	ErrReleased = errors.New("bigbuffer: handle released")
)

// Buffer is the shared scratch region.
type Buffer struct {
	kind    Kind
	claimed bool

	region [regionSize]byte

	// Lengths, meaning depends on kind:
	//   path_info:       len1 = path, len2 = name
	//   command_details: len1 = path, len2 = hash (0 = no download)
	//   gcode:           len1 = body
	len1 int
	len2 int
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Kind reports the current interpretation.
func (b *Buffer) Kind() Kind {
	return b.kind
}

// Claimed reports whether some handle owns the region.
func (b *Buffer) Claimed() bool {
	return b.claimed
}

// Claim takes exclusive ownership of an empty region.
func (b *Buffer) Claim() (*Token, error) {
	if b.claimed || b.kind != KindEmpty {
		return nil, ErrBusy
	}
	b.claimed = true
	return &Token{buf: b}, nil
}

func (b *Buffer) reset() {
	b.kind = KindEmpty
	b.claimed = false
	b.len1 = 0
	b.len2 = 0
}

// ---- WRITERS (owner only) ----

func (b *Buffer) setGcode(body []byte) error {
	if len(body) > GcodeMaxLen {
		return ErrTooLarge
	}
	b.kind = KindGcode
	b.len1 = copy(b.region[:GcodeMaxLen], body)
	b.len2 = 0
	return nil
}

func (b *Buffer) setCommandPath(path string) error {
	if len(path) > LongPathLen {
		return ErrTooLarge
	}
	b.kind = KindCommandDetails
	b.len1 = copy(b.region[:LongPathLen], path)
	b.len2 = 0
	return nil
}

func (b *Buffer) setDownloadHash(hash string) error {
	if b.kind != KindCommandDetails {
		return errors.New("bigbuffer: download hash requires command details")
	}
	// one byte stays reserved, matching the on-wire hash limit
	if len(hash) > HashSize-1 {
		return ErrTooLarge
	}
	b.len2 = copy(b.region[LongPathLen:LongPathLen+HashSize], hash)
	return nil
}

func (b *Buffer) setPathInfo(path, name string) error {
	if len(path) > PathLen || len(name) > NameLen {
		return ErrTooLarge
	}
	b.kind = KindPathInfo
	b.len1 = copy(b.region[:PathLen], path)
	b.len2 = copy(b.region[PathLen:PathLen+NameLen], name)
	return nil
}

// ---- READERS ----

func (b *Buffer) gcode() []byte {
	if b.kind != KindGcode {
		return nil
	}
	return b.region[:b.len1]
}

func (b *Buffer) commandPath() (string, bool) {
	if b.kind != KindCommandDetails {
		return "", false
	}
	return string(b.region[:b.len1]), true
}

func (b *Buffer) downloadHash() (string, bool) {
	if b.kind != KindCommandDetails || b.len2 == 0 {
		return "", false
	}
	return string(b.region[LongPathLen : LongPathLen+b.len2]), true
}

func (b *Buffer) pathInfo() (path, name string, ok bool) {
	if b.kind != KindPathInfo {
		return "", "", false
	}
	return string(b.region[:b.len1]), string(b.region[PathLen : PathLen+b.len2]), true
}
