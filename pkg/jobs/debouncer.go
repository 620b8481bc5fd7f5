package jobs

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces rapid successive writes keyed by entity id. Metric
// edits arrive on every keystroke; only the last edit within the interval is
// persisted. A newer schedule for the same key replaces the pending one, it
// is never queued behind it.
type Debouncer struct {
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*pendingWrite
	closed  bool
}

type pendingWrite struct {
	timer *time.Timer
	fn    func()
}

// NewDebouncer builds a debouncer with the given coalescing interval.
func NewDebouncer(interval time.Duration, logger *zap.Logger) *Debouncer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		interval: interval,
		logger:   logger,
		pending:  make(map[string]*pendingWrite),
	}
}

// Schedule registers fn to run after the interval elapses. Any write already
// pending for the key is dropped in favour of this one.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Sugar().Warnw("debouncer closed, dropping write", "key", key)
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	entry := &pendingWrite{fn: fn}
	entry.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		if d.pending[key] == entry {
			delete(d.pending, key)
		}
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			fn()
		}
	})
	d.pending[key] = entry
}

// Flush runs and clears the pending write for the key immediately, if any.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	entry, ok := d.pending[key]
	if ok {
		entry.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		entry.fn()
	}
}

// Pending reports how many writes are currently waiting.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close flushes every pending write so edits are not lost on shutdown.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	entries := make([]*pendingWrite, 0, len(d.pending))
	for key, entry := range d.pending {
		entry.timer.Stop()
		entries = append(entries, entry)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, entry := range entries {
		entry.fn()
	}
}
