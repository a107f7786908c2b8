package live

import (
	"context"
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/types"
)

// ErrViewFailed is returned when activating a view whose feed already failed
var ErrViewFailed = errors.New("catalog view failed")

// State is a copy of a view's observable state
type State struct {
	Items   []*models.Item
	Visible []*models.Item
	Filter  Filter
	Counts  map[models.ItemType]int
	Err     error
	Active  bool
	Loaded  bool
}

// Listener is told about every state change. It runs on the goroutine that
// caused the change and must not call back into the view.
type Listener func(State)

// CatalogView holds the live item list for one consumer. Every snapshot
// replaces the list; the visible subset and counts are derived on the spot.
// A feed error is terminal for the view.
type CatalogView struct {
	feed   types.ItemFeed
	logger hclog.Logger

	// notifyMu orders state changes with their notifications
	notifyMu sync.Mutex
	mu       sync.Mutex

	items     []*models.Item
	visible   []*models.Item
	counts    map[models.ItemType]int
	filter    Filter
	err       error
	loaded    bool
	sub       types.Subscription
	gen       uint64
	listeners []Listener
}

// NewCatalogView creates an inactive view over feed
func NewCatalogView(feed types.ItemFeed, logger hclog.Logger) *CatalogView {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CatalogView{
		feed:    feed,
		logger:  logger,
		filter:  FilterAll,
		items:   []*models.Item{},
		visible: []*models.Item{},
		counts:  CountByType(nil),
	}
}

// OnChange registers a listener
func (v *CatalogView) OnChange(fn Listener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Activate starts the live subscription. Activating an active view is a
// no-op; a failed view stays failed.
func (v *CatalogView) Activate(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.err != nil {
		return ErrViewFailed
	}
	if v.sub != nil {
		return nil
	}

	v.gen++
	gen := v.gen
	sub, err := v.feed.SubscribeItems(ctx,
		func(items []*models.Item) { v.applySnapshot(gen, items) },
		func(err error) { v.applyError(gen, err) },
	)
	if err != nil {
		return err
	}
	v.sub = sub
	return nil
}

// Deactivate releases the subscription. No state change happens after it
// returns. It must not be called from a Listener.
func (v *CatalogView) Deactivate() {
	v.mu.Lock()
	sub := v.sub
	v.sub = nil
	v.gen++
	v.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// SetFilter changes the visible subset
func (v *CatalogView) SetFilter(f Filter) {
	v.update(func() bool {
		if f == "" {
			f = FilterAll
		}
		v.filter = f
		v.visible = f.Apply(v.items)
		return true
	})
}

// State returns a copy of the current state
func (v *CatalogView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *CatalogView) applySnapshot(gen uint64, items []*models.Item) {
	v.update(func() bool {
		if gen != v.gen || v.sub == nil || v.err != nil {
			return false
		}
		v.items = items
		v.visible = v.filter.Apply(items)
		v.counts = CountByType(items)
		v.loaded = true
		return true
	})
}

func (v *CatalogView) applyError(gen uint64, err error) {
	var sub types.Subscription
	v.update(func() bool {
		if gen != v.gen || v.sub == nil {
			return false
		}
		v.err = err
		sub = v.sub
		v.sub = nil
		return true
	})

	if sub != nil {
		v.logger.Warn("catalog view subscription failed", "error", err)
		// the feed is finishing on this goroutine
		go sub.Unsubscribe()
	}
}

func (v *CatalogView) update(mutate func() bool) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	if !mutate() {
		v.mu.Unlock()
		return
	}
	state := v.stateLocked()
	listeners := append([]Listener(nil), v.listeners...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (v *CatalogView) stateLocked() State {
	counts := make(map[models.ItemType]int, len(v.counts))
	for k, n := range v.counts {
		counts[k] = n
	}
	return State{
		Items:   cloneItems(v.items),
		Visible: cloneItems(v.visible),
		Filter:  v.filter,
		Counts:  counts,
		Err:     v.err,
		Active:  v.sub != nil,
		Loaded:  v.loaded,
	}
}

func cloneItems(items []*models.Item) []*models.Item {
	out := make([]*models.Item, len(items))
	copy(out, items)
	return out
}
