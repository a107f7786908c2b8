package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/types"
)

// ItemLister is the read side a feed needs
type ItemLister interface {
	ListItems(ctx context.Context) ([]*models.Item, error)
}

// BusFeed turns item change events into full item snapshots. Each
// subscription re-runs the ordered item query whenever a catalog.item.*
// event is published. Events arriving during a query collapse into a single
// follow-up query.
type BusFeed struct {
	lister ItemLister
	bus    events.EventBus
	logger hclog.Logger
}

var _ types.ItemFeed = (*BusFeed)(nil)

// NewBusFeed creates a feed over lister driven by bus
func NewBusFeed(lister ItemLister, bus events.EventBus, logger hclog.Logger) *BusFeed {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BusFeed{lister: lister, bus: bus, logger: logger}
}

// SubscribeItems implements types.ItemFeed
func (f *BusFeed) SubscribeItems(ctx context.Context, onSnapshot types.SnapshotFunc, onError types.ErrorFunc) (types.Subscription, error) {
	if onSnapshot == nil {
		return nil, errors.New("snapshot callback is required")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &busSubscription{
		cancel:  cancel,
		refresh: make(chan struct{}, 1),
	}

	busSub, err := f.bus.Subscribe(subCtx, "catalog.live", events.EventFilter{Types: events.ItemEventTypes},
		func(events.Event) error {
			sub.poke()
			return nil
		})
	if err != nil {
		cancel()
		return nil, err
	}

	sub.poke()
	sub.wg.Add(1)
	go f.run(subCtx, sub, busSub.ID, onSnapshot, onError)

	return sub, nil
}

func (f *BusFeed) run(ctx context.Context, sub *busSubscription, busSubID string, onSnapshot types.SnapshotFunc, onError types.ErrorFunc) {
	defer sub.wg.Done()
	defer func() {
		if err := f.bus.Unsubscribe(busSubID); err != nil {
			f.logger.Debug("bus subscription already gone", "subscription", busSubID, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.refresh:
		}

		items, err := f.lister.ListItems(ctx)
		if sub.stopped.Load() || ctx.Err() != nil {
			return
		}
		if err != nil {
			f.logger.Warn("live item query failed", "error", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		onSnapshot(items)
	}
}

type busSubscription struct {
	cancel  context.CancelFunc
	refresh chan struct{}
	stopped atomic.Bool
	once    sync.Once
	wg      sync.WaitGroup
}

// poke schedules a re-query without blocking the bus dispatcher
func (s *busSubscription) poke() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Unsubscribe ends the subscription and waits for an in-flight callback
func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.cancel()
	})
	s.wg.Wait()
}
