// Package service implements the catalog operations exposed over HTTP.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/live"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/rating"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/types"
)

const eventSource = "catalog"

// NewComment is the input for AddComment
type NewComment struct {
	UserID   string
	UserName string
	Text     string
	Rating   *int
}

// CatalogService wraps the store, publishes change events after successful
// writes and hands out live views.
type CatalogService struct {
	items    types.ItemRepository
	comments types.CommentRepository
	feed     types.ItemFeed
	bus      events.EventBus
	policy   rating.UnratedPolicy
	logger   hclog.Logger
}

// Options configures a CatalogService
type Options struct {
	Items    types.ItemRepository
	Comments types.CommentRepository
	Feed     types.ItemFeed
	Bus      events.EventBus
	Policy   rating.UnratedPolicy
	Logger   hclog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(opts Options) *CatalogService {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Policy == "" {
		opts.Policy = rating.UnratedExclude
	}
	return &CatalogService{
		items:    opts.Items,
		comments: opts.Comments,
		feed:     opts.Feed,
		bus:      opts.Bus,
		policy:   opts.Policy,
		logger:   opts.Logger,
	}
}

// ListItems returns all items, or only those of itemType when it is set
func (s *CatalogService) ListItems(ctx context.Context, itemType models.ItemType) ([]*models.Item, error) {
	if itemType == "" {
		return s.items.ListItems(ctx)
	}
	return s.items.ListItemsByType(ctx, itemType)
}

// GetItem returns one item
func (s *CatalogService) GetItem(ctx context.Context, id string) (*models.Item, error) {
	return s.items.GetItem(ctx, id)
}

// CreateItem stores a new item and announces it
func (s *CatalogService) CreateItem(ctx context.Context, itemType models.ItemType, fields models.ItemFields) (*models.Item, error) {
	item, err := s.items.CreateItem(ctx, itemType, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Info("item created", "item_id", item.ID, "type", item.Type)
	s.publish(ctx, events.EventItemCreated, item.ID, map[string]interface{}{
		"type":  string(item.Type),
		"title": item.Title,
	})
	return item, nil
}

// UpdateItem changes the provided fields and announces it
func (s *CatalogService) UpdateItem(ctx context.Context, id string, fields models.ItemFields) (*models.Item, error) {
	item, err := s.items.UpdateItem(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("item updated", "item_id", id)
	s.publish(ctx, events.EventItemUpdated, id, nil)
	return item, nil
}

// DeleteItem removes an item. Its comments stay behind.
func (s *CatalogService) DeleteItem(ctx context.Context, id string) error {
	if err := s.items.DeleteItem(ctx, id); err != nil {
		return err
	}

	s.logger.Info("item deleted", "item_id", id)
	s.publish(ctx, events.EventItemDeleted, id, nil)
	return nil
}

// ListComments returns an item's comments, newest first
func (s *CatalogService) ListComments(ctx context.Context, itemID string) ([]*models.Comment, error) {
	return s.comments.ListComments(ctx, itemID)
}

// AddComment validates and stores a comment on itemID. The item reference
// is not checked.
func (s *CatalogService) AddComment(ctx context.Context, itemID string, in NewComment) (*models.Comment, error) {
	userName := strings.TrimSpace(in.UserName)
	text := strings.TrimSpace(in.Text)

	switch {
	case strings.TrimSpace(itemID) == "":
		return nil, catalogerrors.ValidationError("add_comment", errInput("item id is required"))
	case userName == "":
		return nil, catalogerrors.ValidationError("add_comment", errInput("user name is required"))
	case text == "":
		return nil, catalogerrors.ValidationError("add_comment", errInput("comment text is required"))
	case in.Rating != nil && (*in.Rating < models.MinRating || *in.Rating > models.MaxRating):
		return nil, catalogerrors.ValidationError("add_comment", errInput("rating must be between 1 and 5"))
	}

	comment, err := s.comments.CreateComment(ctx, &models.Comment{
		ItemID:   itemID,
		UserID:   in.UserID,
		UserName: userName,
		Text:     text,
		Rating:   in.Rating,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventCommentCreated, itemID, map[string]interface{}{"comment_id": comment.ID})
	return comment, nil
}

// DeleteComment removes a comment
func (s *CatalogService) DeleteComment(ctx context.Context, id string) error {
	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EventCommentDeleted, id, nil)
	return nil
}

// Rating summarises the ratings on an item's comments
func (s *CatalogService) Rating(ctx context.Context, itemID string) (rating.Summary, error) {
	comments, err := s.comments.ListComments(ctx, itemID)
	if err != nil {
		return rating.Summary{}, err
	}
	return rating.Summarize(comments, s.policy), nil
}

// NewLiveView returns an inactive view over the live item feed
func (s *CatalogService) NewLiveView() *live.CatalogView {
	return live.NewCatalogView(s.feed, s.logger.Named("view"))
}

// NewSnapshotView returns an unloaded one-shot view
func (s *CatalogService) NewSnapshotView() *live.SnapshotView {
	return live.NewSnapshotView(s.items)
}

// publish announces a completed write. Failures are logged only; the write
// itself already succeeded.
func (s *CatalogService) publish(ctx context.Context, eventType events.EventType, target string, data map[string]interface{}) {
	if s.bus == nil {
		return
	}

	event := events.NewEvent(eventType, eventSource, target)
	for k, v := range data {
		event.Data[k] = v
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish catalog event", "type", eventType, "target", target, "error", err)
	}
}

func errInput(msg string) error {
	return fmt.Errorf("%w: %s", catalogerrors.ErrInvalidInput, msg)
}
