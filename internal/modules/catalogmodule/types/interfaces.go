// Package types declares the contracts between catalog components.
package types

import (
	"context"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// ItemRepository persists catalog items
type ItemRepository interface {
	// ListItems returns every item, newest first.
	ListItems(ctx context.Context) ([]*models.Item, error)
	// ListItemsByType returns items of one type, newest first.
	ListItemsByType(ctx context.Context, itemType models.ItemType) ([]*models.Item, error)
	GetItem(ctx context.Context, id string) (*models.Item, error)
	CreateItem(ctx context.Context, itemType models.ItemType, fields models.ItemFields) (*models.Item, error)
	// UpdateItem overwrites the given fields and refreshes UpdatedAt.
	UpdateItem(ctx context.Context, id string, fields models.ItemFields) (*models.Item, error)
	// DeleteItem is idempotent.
	DeleteItem(ctx context.Context, id string) error
}

// CommentRepository persists comments
type CommentRepository interface {
	// ListComments returns the comments of one item, newest first.
	ListComments(ctx context.Context, itemID string) ([]*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	// DeleteComment is idempotent.
	DeleteComment(ctx context.Context, id string) error
}

// SnapshotFunc receives the full ordered item list
type SnapshotFunc func(items []*models.Item)

// ErrorFunc receives the error that ended a subscription
type ErrorFunc func(err error)

// Subscription is a standing live query. Unsubscribe releases it; calling it
// more than once is harmless. Once it returns no callback fires again. It
// must not be called from inside the subscription's own callbacks.
type Subscription interface {
	Unsubscribe()
}

// ItemFeed delivers the ordered item list every time it changes. The first
// snapshot arrives right after subscribing. Callbacks of one subscription
// never run concurrently. After onError the subscription is finished.
type ItemFeed interface {
	SubscribeItems(ctx context.Context, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error)
}

// Store bundles everything a catalog backend provides
type Store interface {
	ItemRepository
	CommentRepository
	ItemFeed
	Close() error
}
