// Package debounce delays searches until typing settles.
package debounce

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
)

// DefaultWindow is the quiescence window used when none is configured
const DefaultWindow = 500 * time.Millisecond

// SearchFunc runs one search. ctx is cancelled when a newer term arrives.
type SearchFunc func(ctx context.Context, term string) ([]types.Match, error)

// ResultFunc receives the outcome for the latest term
type ResultFunc func(term string, matches []types.Match, err error)

// Debouncer runs SearchFunc once per burst of Trigger calls, with the last
// term of the burst. Results of superseded searches are dropped, so
// ResultFunc only ever sees the newest term.
type Debouncer struct {
	window   time.Duration
	search   SearchFunc
	onResult ResultFunc
	parent   context.Context

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	seq     uint64
	closed  bool
	pending sync.WaitGroup

	// serialises ResultFunc calls
	deliverMu sync.Mutex
}

// New creates a debouncer. Searches run under contexts derived from parent.
func New(parent context.Context, window time.Duration, search SearchFunc, onResult ResultFunc) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:   window,
		search:   search,
		onResult: onResult,
		parent:   parent,
	}
}

// Trigger restarts the window with term. A blank term cancels any pending
// or running search and reports an empty result at once.
func (d *Debouncer) Trigger(term string) {
	term = strings.TrimSpace(term)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.seq++
	seq := d.seq

	if term == "" {
		d.mu.Unlock()
		d.deliver(seq, term, []types.Match{}, nil)
		return
	}

	ctx, cancel := context.WithCancel(d.parent)
	d.cancel = cancel
	d.pending.Add(1)
	d.timer = time.AfterFunc(d.window, func() {
		defer d.pending.Done()
		d.fire(ctx, seq, term)
	})
	d.mu.Unlock()
}

// Close cancels pending work and waits for a running search to return.
// Trigger is a no-op afterwards.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()

	d.pending.Wait()
}

// stopLocked cancels the current timer and search. Caller holds mu.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		if d.timer.Stop() {
			d.pending.Done()
		}
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer) fire(ctx context.Context, seq uint64, term string) {
	if ctx.Err() != nil || !d.current(seq) {
		return
	}

	matches, err := d.search(ctx, term)
	if ctx.Err() != nil {
		return
	}
	d.deliver(seq, term, matches, err)
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && d.seq == seq
}

func (d *Debouncer) deliver(seq uint64, term string, matches []types.Match, err error) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()
	if !d.current(seq) {
		return
	}
	d.onResult(term, matches, err)
}
