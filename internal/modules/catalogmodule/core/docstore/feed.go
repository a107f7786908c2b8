package docstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"cloud.google.com/go/firestore"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SubscribeItems starts a snapshot listener on the items collection ordered
// newest first. Every snapshot, the first included, is delivered from a
// single goroutine.
func (s *Store) SubscribeItems(ctx context.Context, onSnapshot types.SnapshotFunc, onError types.ErrorFunc) (types.Subscription, error) {
	if onSnapshot == nil {
		return nil, catalogerrors.ValidationError("subscribe_items", errors.New("snapshot callback is required"))
	}

	subCtx, cancel := context.WithCancel(ctx)
	it := s.items().OrderBy(fieldCreatedAt, firestore.Desc).Snapshots(subCtx)

	sub := &snapshotSubscription{cancel: cancel}
	sub.wg.Add(1)
	go sub.run(subCtx, it, onSnapshot, onError)

	s.logger.Debug("item snapshot listener started")
	return sub, nil
}

type snapshotSubscription struct {
	cancel  context.CancelFunc
	stopped atomic.Bool
	once    sync.Once
	wg      sync.WaitGroup
}

func (sub *snapshotSubscription) run(ctx context.Context, it *firestore.QuerySnapshotIterator, onSnapshot types.SnapshotFunc, onError types.ErrorFunc) {
	defer sub.wg.Done()
	defer it.Stop()

	for {
		qs, err := it.Next()
		if err != nil {
			if sub.stopped.Load() || ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
				return
			}
			sub.fail(onError, catalogerrors.StoreError("subscribe_items", err))
			return
		}

		snaps, err := qs.Documents.GetAll()
		if err != nil {
			sub.fail(onError, catalogerrors.StoreError("subscribe_items", err))
			return
		}
		items, err := decodeItems(snaps)
		if err != nil {
			sub.fail(onError, err)
			return
		}

		if sub.stopped.Load() {
			return
		}
		onSnapshot(items)
	}
}

func (sub *snapshotSubscription) fail(onError types.ErrorFunc, err error) {
	if sub.stopped.Load() || onError == nil {
		return
	}
	onError(err)
}

// Unsubscribe stops the listener and waits for an in-flight callback
func (sub *snapshotSubscription) Unsubscribe() {
	sub.once.Do(func() {
		sub.stopped.Store(true)
		sub.cancel()
	})
	sub.wg.Wait()
}
