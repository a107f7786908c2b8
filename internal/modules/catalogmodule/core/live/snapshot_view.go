package live

import (
	"context"
	"sync"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// SnapshotView is the one-shot variant of CatalogView. It fetches the item
// list when Load is called and never learns about later changes.
type SnapshotView struct {
	lister ItemLister

	mu      sync.Mutex
	items   []*models.Item
	visible []*models.Item
	counts  map[models.ItemType]int
	filter  Filter
	err     error
	loaded  bool
}

// NewSnapshotView creates an empty one-shot view
func NewSnapshotView(lister ItemLister) *SnapshotView {
	return &SnapshotView{
		lister:  lister,
		filter:  FilterAll,
		items:   []*models.Item{},
		visible: []*models.Item{},
		counts:  CountByType(nil),
	}
}

// Load fetches the item list once. A failed load keeps the previous items
// and records the error in State.
func (v *SnapshotView) Load(ctx context.Context) (State, error) {
	items, err := v.lister.ListItems(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.err = err
	if err == nil {
		v.items = items
		v.visible = v.filter.Apply(items)
		v.counts = CountByType(items)
		v.loaded = true
	}
	return v.stateLocked(), err
}

// SetFilter changes the visible subset without refetching
func (v *SnapshotView) SetFilter(f Filter) State {
	v.mu.Lock()
	defer v.mu.Unlock()

	if f == "" {
		f = FilterAll
	}
	v.filter = f
	v.visible = f.Apply(v.items)
	return v.stateLocked()
}

// State returns a copy of the current state
func (v *SnapshotView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *SnapshotView) stateLocked() State {
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
		Loaded:  v.loaded,
	}
}
