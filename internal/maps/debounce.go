package maps

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSuperseded reports that a newer Do call replaced this one before it
// completed. Supersession is the normal fate of most calls in a burst, so
// callers usually treat it as "nothing to do" rather than a failure.
var ErrSuperseded = errors.New("superseded by a newer call")

// Debouncer coalesces rapid successive calls into one. Each Do supersedes the
// previous one: the superseded call's context is cancelled immediately, which
// both stops its pending wait and aborts its in-flight network request. Only
// a call left undisturbed for the full window runs its function.
//
// Typical use is one Debouncer per autocomplete session, so a burst of
// keystrokes produces a single upstream request for the final query.
type Debouncer struct {
	window time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDebouncer creates a Debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Do waits for the quiet window, then runs fn. If another Do arrives first,
// this call (and fn, if already running) is cancelled and Do returns
// ErrSuperseded. Cancelling ctx instead returns ctx's error.
func (d *Debouncer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	timer := time.NewTimer(d.window)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-runCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrSuperseded
	}

	err := fn(runCtx)
	// fn aborted by a newer call surfaces the raw cancellation; translate it
	// so callers see supersession, not a failure.
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		return ErrSuperseded
	}
	return err
}

// debouncerTTL bounds how long an idle per-session debouncer is kept before
// the pool prunes it.
const debouncerTTL = 10 * time.Minute

// DebouncerPool hands out one Debouncer per key (autocomplete session) and
// evicts entries that have been idle past the TTL.
type DebouncerPool struct {
	window time.Duration

	mu      sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	debouncer *Debouncer
	lastUsed  time.Time
}

// NewDebouncerPool creates a pool whose debouncers share one quiet window.
func NewDebouncerPool(window time.Duration) *DebouncerPool {
	return &DebouncerPool{
		window:  window,
		entries: make(map[string]*poolEntry),
	}
}

// Get returns the debouncer for key, creating it on first use.
func (p *DebouncerPool) Get(key string) *Debouncer {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	for k, e := range p.entries {
		if now.Sub(e.lastUsed) > debouncerTTL {
			delete(p.entries, k)
		}
	}

	e, ok := p.entries[key]
	if !ok {
		e = &poolEntry{debouncer: NewDebouncer(p.window)}
		p.entries[key] = e
	}
	e.lastUsed = now
	return e.debouncer
}
