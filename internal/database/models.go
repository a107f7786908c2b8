package database

import (
	"time"
)

// ItemRecord is the row shape of a catalog item. Exactly one of Platform,
// Seasons and RuntimeMinutes is non-nil, matching Type.
type ItemRecord struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Type           string    `gorm:"not null;index;type:varchar(16)" json:"type"`
	Title          string    `gorm:"not null;default:''" json:"title"`
	Genre          string    `gorm:"not null;default:''" json:"genre"`
	Year           int       `gorm:"not null;default:0" json:"year"`
	Description    string    `gorm:"type:text;not null;default:''" json:"description"`
	ImageURL       string    `gorm:"not null;default:''" json:"image_url"`
	Studio         string    `gorm:"not null;default:''" json:"studio"`
	Platform       *string   `json:"platform,omitempty"`
	Seasons        *int      `json:"seasons,omitempty"`
	RuntimeMinutes *int      `json:"runtime_minutes,omitempty"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for ItemRecord
func (ItemRecord) TableName() string {
	return "items"
}

// CommentRecord is the row shape of a comment. ItemID is not a foreign key:
// comments survive the deletion of their item.
type CommentRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ItemID    string    `gorm:"not null;index:idx_comments_item_created,priority:1;type:varchar(36)" json:"item_id"`
	UserID    string    `gorm:"not null;default:''" json:"user_id"`
	UserName  string    `gorm:"not null" json:"user_name"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `gorm:"not null;index:idx_comments_item_created,priority:2" json:"created_at"`
}

// TableName returns the table name for CommentRecord
func (CommentRecord) TableName() string {
	return "comments"
}

// MetadataCacheEntry stores a raw metadata provider response
type MetadataCacheEntry struct {
	ID        uint32    `gorm:"primaryKey" json:"id"`
	Provider  string    `gorm:"not null;uniqueIndex:idx_metadata_cache_key,priority:1;type:varchar(16)" json:"provider"`
	QueryType string    `gorm:"not null;uniqueIndex:idx_metadata_cache_key,priority:2;type:varchar(16)" json:"query_type"`
	QueryHash string    `gorm:"not null;uniqueIndex:idx_metadata_cache_key,priority:3;type:varchar(32)" json:"query_hash"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for MetadataCacheEntry
func (MetadataCacheEntry) TableName() string {
	return "metadata_cache"
}
