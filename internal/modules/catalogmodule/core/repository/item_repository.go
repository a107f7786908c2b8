// Package repository provides the gorm-backed data access layer for items
// and comments.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mantonx/catalog/internal/database"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"gorm.io/gorm"
)

// Clock returns the current time. Timestamps are stored at microsecond
// precision so they survive a Postgres round trip unchanged.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ItemRepository handles all database operations for items
type ItemRepository struct {
	db  *gorm.DB
	now Clock
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db, now: defaultClock}
}

// WithClock replaces the timestamp source
func (r *ItemRepository) WithClock(now Clock) *ItemRepository {
	r.now = now
	return r
}

// ListItems retrieves every item, newest first
func (r *ItemRepository) ListItems(ctx context.Context) ([]*models.Item, error) {
	var records []*database.ItemRecord
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&records).Error; err != nil {
		return nil, catalogerrors.StoreError("list_items", err)
	}
	return itemsFromRecords(records), nil
}

// ListItemsByType retrieves the items of one type, newest first
func (r *ItemRepository) ListItemsByType(ctx context.Context, itemType models.ItemType) ([]*models.Item, error) {
	if !itemType.Valid() {
		return nil, catalogerrors.ValidationError("list_items_by_type", catalogerrors.ErrInvalidItemType)
	}

	var records []*database.ItemRecord
	err := r.db.WithContext(ctx).
		Where("type = ?", string(itemType)).
		Order("created_at DESC").Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, catalogerrors.StoreError("list_items_by_type", err)
	}
	return itemsFromRecords(records), nil
}

// GetItem retrieves an item by ID
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var record database.ItemRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalogerrors.ItemNotFound("get_item", id)
		}
		return nil, catalogerrors.StoreError("get_item", err).WithItem(id)
	}
	return itemFromRecord(&record), nil
}

// CreateItem builds an item from the field bag and stores it
func (r *ItemRepository) CreateItem(ctx context.Context, itemType models.ItemType, fields models.ItemFields) (*models.Item, error) {
	item, err := models.NewItem(itemType, fields)
	if err != nil {
		return nil, catalogerrors.ValidationError("create_item", err)
	}

	now := r.now()
	item.ID = uuid.New().String()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(recordFromItem(item)).Error; err != nil {
		return nil, catalogerrors.StoreError("create_item", err)
	}
	return item, nil
}

// UpdateItem overwrites the provided fields and refreshes UpdatedAt. The
// item type and CreatedAt are never touched.
func (r *ItemRepository) UpdateItem(ctx context.Context, id string, fields models.ItemFields) (*models.Item, error) {
	item, err := r.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Apply(fields)

	now := r.now()
	if !now.After(item.UpdatedAt) {
		now = item.UpdatedAt.Add(time.Microsecond)
	}
	item.UpdatedAt = now

	rec := recordFromItem(item)
	updates := map[string]interface{}{
		"title":           rec.Title,
		"genre":           rec.Genre,
		"year":            rec.Year,
		"description":     rec.Description,
		"image_url":       rec.ImageURL,
		"studio":          rec.Studio,
		"platform":        rec.Platform,
		"seasons":         rec.Seasons,
		"runtime_minutes": rec.RuntimeMinutes,
		"updated_at":      rec.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Model(&database.ItemRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, catalogerrors.StoreError("update_item", result.Error).WithItem(id)
	}
	if result.RowsAffected == 0 {
		return nil, catalogerrors.ItemNotFound("update_item", id)
	}
	return item, nil
}

// DeleteItem removes an item. Deleting an absent item is not an error, and
// the item's comments are left in place.
func (r *ItemRepository) DeleteItem(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&database.ItemRecord{}).Error; err != nil {
		return catalogerrors.StoreError("delete_item", err).WithItem(id)
	}
	return nil
}

func itemsFromRecords(records []*database.ItemRecord) []*models.Item {
	items := make([]*models.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, itemFromRecord(rec))
	}
	return items
}
