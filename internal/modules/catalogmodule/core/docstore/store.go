// Package docstore keeps items and comments in Cloud Firestore and serves
// the live item feed from Firestore snapshot listeners.
package docstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hashicorp/go-hclog"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/types"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	itemsCollection    = "items"
	commentsCollection = "comments"
)

// Config holds the Firestore connection settings
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// Store implements types.Store on top of a Firestore client
type Store struct {
	client *firestore.Client
	logger hclog.Logger
	now    func() time.Time
}

var _ types.Store = (*Store)(nil)

// New connects to Firestore. FIRESTORE_EMULATOR_HOST is honoured by the
// client library.
func New(ctx context.Context, cfg Config, logger hclog.Logger) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return NewWithClient(client, logger), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *firestore.Client, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{
		client: client,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// Close releases the client
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) items() *firestore.CollectionRef {
	return s.client.Collection(itemsCollection)
}

func (s *Store) comments() *firestore.CollectionRef {
	return s.client.Collection(commentsCollection)
}

// ListItems returns every item, newest first
func (s *Store) ListItems(ctx context.Context) ([]*models.Item, error) {
	snaps, err := s.items().OrderBy(fieldCreatedAt, firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, catalogerrors.StoreError("list_items", err)
	}
	return decodeItems(snaps)
}

// ListItemsByType returns the items of one type, newest first
func (s *Store) ListItemsByType(ctx context.Context, itemType models.ItemType) ([]*models.Item, error) {
	if !itemType.Valid() {
		return nil, catalogerrors.ValidationError("list_items_by_type", catalogerrors.ErrInvalidItemType)
	}

	snaps, err := s.items().
		Where(fieldType, "==", string(itemType)).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, catalogerrors.StoreError("list_items_by_type", err)
	}
	return decodeItems(snaps)
}

// GetItem fetches one item
func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	snap, err := s.items().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, catalogerrors.ItemNotFound("get_item", id)
		}
		return nil, catalogerrors.StoreError("get_item", err).WithItem(id)
	}
	return decodeItem(snap)
}

// CreateItem stores a new item under a generated document id
func (s *Store) CreateItem(ctx context.Context, itemType models.ItemType, fields models.ItemFields) (*models.Item, error) {
	item, err := models.NewItem(itemType, fields)
	if err != nil {
		return nil, catalogerrors.ValidationError("create_item", err)
	}

	ref := s.items().NewDoc()
	now := s.now()
	item.ID = ref.ID
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := ref.Create(ctx, docFromItem(item)); err != nil {
		return nil, catalogerrors.StoreError("create_item", err)
	}
	return item, nil
}

// UpdateItem applies the provided fields inside a transaction so the stored
// type is read and written atomically.
func (s *Store) UpdateItem(ctx context.Context, id string, fields models.ItemFields) (*models.Item, error) {
	ref := s.items().Doc(id)
	var updated *models.Item

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		item, err := decodeItem(snap)
		if err != nil {
			return err
		}

		item.Apply(fields)
		now := s.now()
		if !now.After(item.UpdatedAt) {
			now = item.UpdatedAt.Add(time.Microsecond)
		}
		item.UpdatedAt = now

		updated = item
		return tx.Set(ref, docFromItem(item))
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, catalogerrors.ItemNotFound("update_item", id)
		}
		if catalogerrors.IsStoreError(err) {
			return nil, err
		}
		return nil, catalogerrors.StoreError("update_item", err).WithItem(id)
	}
	return updated, nil
}

// DeleteItem removes an item. Missing documents are not an error and the
// item's comments are kept.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.items().Doc(id).Delete(ctx); err != nil {
		return catalogerrors.StoreError("delete_item", err).WithItem(id)
	}
	return nil
}

// ListComments returns an item's comments, newest first
func (s *Store) ListComments(ctx context.Context, itemID string) ([]*models.Comment, error) {
	snaps, err := s.comments().
		Where(fieldItemID, "==", itemID).
		OrderBy(fieldCreatedAt, firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, catalogerrors.StoreError("list_comments", err).WithItem(itemID)
	}

	comments := make([]*models.Comment, 0, len(snaps))
	for _, snap := range snaps {
		var doc commentDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, catalogerrors.StoreError("list_comments", err).WithComment(snap.Ref.ID)
		}
		comments = append(comments, commentFromDoc(snap.Ref.ID, &doc))
	}
	return comments, nil
}

// CreateComment stores a comment under a generated document id
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	ref := s.comments().NewDoc()
	stored := *comment
	stored.ID = ref.ID
	stored.CreatedAt = s.now()

	if _, err := ref.Create(ctx, docFromComment(&stored)); err != nil {
		return nil, catalogerrors.StoreError("create_comment", err).WithItem(stored.ItemID)
	}
	return &stored, nil
}

// DeleteComment removes a comment. Missing documents are not an error.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	if _, err := s.comments().Doc(id).Delete(ctx); err != nil {
		return catalogerrors.StoreError("delete_comment", err).WithComment(id)
	}
	return nil
}

func decodeItem(snap *firestore.DocumentSnapshot) (*models.Item, error) {
	var doc itemDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, catalogerrors.StoreError("decode_item", err).WithItem(snap.Ref.ID)
	}
	return itemFromDoc(snap.Ref.ID, &doc), nil
}

func decodeItems(snaps []*firestore.DocumentSnapshot) ([]*models.Item, error) {
	items := make([]*models.Item, 0, len(snaps))
	for _, snap := range snaps {
		item, err := decodeItem(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
