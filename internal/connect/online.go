// internal/connect/online.go
package connect

import (
	"sync"
	"time"

	"github.com/tamzrod/connect-client/internal/status"
)

// tracker records the link status for readers on other goroutines.
type tracker struct {
	mu  sync.RWMutex
	cur status.Online
	now func() time.Time
}

func newTracker(now func() time.Time) *tracker {
	return &tracker{cur: status.Online{Link: status.LinkUnknown, Since: now()}, now: now}
}

func (t *tracker) set(link status.Link) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur.Link != link {
		t.cur.Since = t.now()
	}
	t.cur.Link = link
	if link == status.LinkOK {
		t.cur.Code = status.CodeNone
		t.cur.LastError = ""
		t.cur.LastOK = t.now()
	}
}

func (t *tracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cur.Link != status.LinkError {
		t.cur.Since = t.now()
	}
	t.cur.Link = status.LinkError
	t.cur.Code = Classify(err)
	t.cur.LastError = err.Error()
}

func (t *tracker) get() status.Online {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur
}
