// internal/config/source.go
package config

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileSource serves the configuration file, reloading it when it changes.
//
// Every call re-stats the file. A reload that fails to load or validate is
// logged and the last good configuration stays in effect.
type FileSource struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	cur     *Config
	modTime time.Time
	size    int64
}

// NewFileSource loads the file once. The initial load must succeed.
func NewFileSource(path string, log zerolog.Logger) (*FileSource, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	cfg, err := LoadValid(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{
		path:    path,
		log:     log.With().Str("component", "config").Logger(),
		cur:     cfg,
		modTime: st.ModTime(),
		size:    st.Size(),
	}, nil
}

// Current returns the freshest valid configuration.
// The returned value must be treated as read-only.
func (s *FileSource) Current() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := os.Stat(s.path)
	if err != nil {
		s.log.Warn().Err(err).Msg("config stat failed, keeping previous")
		return s.cur
	}
	if st.ModTime().Equal(s.modTime) && st.Size() == s.size {
		return s.cur
	}

	// remember the attempt either way so a broken file is reported once
	s.modTime = st.ModTime()
	s.size = st.Size()

	cfg, err := LoadValid(s.path)
	if err != nil {
		s.log.Warn().Err(err).Msg("config reload failed, keeping previous")
		return s.cur
	}

	// identity is fixed for the process lifetime
	cfg.Printer = s.cur.Printer

	s.cur = cfg
	s.log.Info().Msg("config reloaded")
	return s.cur
}

// Connect returns the current link configuration.
func (s *FileSource) Connect() Connect {
	return s.Current().Connect
}
