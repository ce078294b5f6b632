// internal/bigbuffer/token.go
package bigbuffer

// Token is the single owner of a claimed region.
//
// Release resets the region to empty. A moved-from or released token is
// inert, so `defer tok.Release()` is always safe, including on nil.
type Token struct {
	buf *Buffer
}

// Held reports whether the token still owns the region.
func (t *Token) Held() bool {
	return t != nil && t.buf != nil
}

// Release gives the region back. Idempotent.
func (t *Token) Release() {
	if !t.Held() {
		return
	}
	t.buf.reset()
	t.buf = nil
}

// Move transfers ownership to a new token. The receiver becomes inert.
func (t *Token) Move() *Token {
	if !t.Held() {
		return nil
	}
	n := &Token{buf: t.buf}
	t.buf = nil
	return n
}

// Share converts the claim into a reference-counted handle with one
// reference. The receiver becomes inert.
func (t *Token) Share() *Shared {
	if !t.Held() {
		return nil
	}
	s := &Shared{st: &sharedState{buf: t.buf, refs: 1}}
	t.buf = nil
	return s
}

func (t *Token) SetGcode(body []byte) error {
	if !t.Held() {
		return ErrReleased
	}
	return t.buf.setGcode(body)
}

func (t *Token) SetCommandPath(path string) error {
	if !t.Held() {
		return ErrReleased
	}
	return t.buf.setCommandPath(path)
}

// SetDownloadHash attaches download details to a command path.
func (t *Token) SetDownloadHash(hash string) error {
	if !t.Held() {
		return ErrReleased
	}
	return t.buf.setDownloadHash(hash)
}

func (t *Token) SetPathInfo(path, name string) error {
	if !t.Held() {
		return ErrReleased
	}
	return t.buf.setPathInfo(path, name)
}

func (t *Token) PathInfo() (path, name string, ok bool) {
	if !t.Held() {
		return "", "", false
	}
	return t.buf.pathInfo()
}

func (t *Token) Gcode() []byte {
	if !t.Held() {
		return nil
	}
	return t.buf.gcode()
}

// ---- SHARED ----

type sharedState struct {
	buf  *Buffer
	refs int
}

// Shared is a reference-counted claim. The region resets when the last
// reference is released.
type Shared struct {
	st *sharedState
}

// Held reports whether this reference is still live.
func (s *Shared) Held() bool {
	return s != nil && s.st != nil
}

// Clone adds a reference.
func (s *Shared) Clone() *Shared {
	if !s.Held() {
		return nil
	}
	s.st.refs++
	return &Shared{st: s.st}
}

// Release drops this reference. Idempotent per handle.
func (s *Shared) Release() {
	if !s.Held() {
		return
	}
	st := s.st
	s.st = nil
	st.refs--
	if st.refs == 0 {
		st.buf.reset()
	}
}

// Refs returns the number of live references.
func (s *Shared) Refs() int {
	if !s.Held() {
		return 0
	}
	return s.st.refs
}

func (s *Shared) Gcode() []byte {
	if !s.Held() {
		return nil
	}
	return s.st.buf.gcode()
}

func (s *Shared) Path() (string, bool) {
	if !s.Held() {
		return "", false
	}
	return s.st.buf.commandPath()
}

func (s *Shared) DownloadHash() (string, bool) {
	if !s.Held() {
		return "", false
	}
	return s.st.buf.downloadHash()
}
