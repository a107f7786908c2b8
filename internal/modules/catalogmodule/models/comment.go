package models

import (
	"time"
)

// MinRating and MaxRating bound a comment rating
const (
	MinRating = 1
	MaxRating = 5
)

// Comment is a user remark on an item. Comments are immutable once stored.
type Comment struct {
	ID        string    `json:"id,omitempty"`
	ItemID    string    `json:"itemId"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasRating reports whether the comment carries a rating
func (c *Comment) HasRating() bool {
	return c.Rating != nil
}
