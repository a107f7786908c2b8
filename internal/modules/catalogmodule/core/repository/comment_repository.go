package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/mantonx/catalog/internal/database"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"gorm.io/gorm"
)

// CommentRepository handles all database operations for comments
type CommentRepository struct {
	db  *gorm.DB
	now Clock
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db, now: defaultClock}
}

// WithClock replaces the timestamp source
func (r *CommentRepository) WithClock(now Clock) *CommentRepository {
	r.now = now
	return r
}

// ListComments retrieves the comments of an item, newest first. The item
// itself is not checked for existence.
func (r *CommentRepository) ListComments(ctx context.Context, itemID string) ([]*models.Comment, error) {
	var records []*database.CommentRecord
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, catalogerrors.StoreError("list_comments", err).WithItem(itemID)
	}

	comments := make([]*models.Comment, 0, len(records))
	for _, rec := range records {
		comments = append(comments, commentFromRecord(rec))
	}
	return comments, nil
}

// CreateComment stores a comment as given. Presence of user name, text and
// rating is checked by the caller.
func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	stored := *comment
	stored.ID = uuid.New().String()
	stored.CreatedAt = r.now()

	rec := &database.CommentRecord{
		ID:        stored.ID,
		ItemID:    stored.ItemID,
		UserID:    stored.UserID,
		UserName:  stored.UserName,
		Text:      stored.Text,
		Rating:    stored.Rating,
		CreatedAt: stored.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, catalogerrors.StoreError("create_comment", err).WithItem(stored.ItemID)
	}
	return &stored, nil
}

// DeleteComment removes a comment by ID. Deleting an absent comment is not
// an error.
func (r *CommentRepository) DeleteComment(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&database.CommentRecord{}).Error; err != nil {
		return catalogerrors.StoreError("delete_comment", err).WithComment(id)
	}
	return nil
}
