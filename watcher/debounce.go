package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collects changed paths and hands them to fn as one sorted batch
// once no new path has arrived for the quiet period.
type Debouncer struct {
	duration time.Duration
	fn       func(paths []string)
	pending  map[string]struct{}
	timer    *time.Timer
	mu       sync.Mutex
}

func NewDebouncer(duration time.Duration, fn func(paths []string)) *Debouncer {
	return &Debouncer{
		duration: duration,
		fn:       fn,
		pending:  make(map[string]struct{}),
	}
}

func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	sort.Strings(paths)
	d.fn(paths)
}

// Stop drops any pending batch.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
