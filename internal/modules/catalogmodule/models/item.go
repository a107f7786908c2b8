// Package models defines catalog items and comments.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
)

// ItemType tags an item and selects its payload
type ItemType string

const (
	ItemTypeVideogame ItemType = "videogame"
	ItemTypeSeries    ItemType = "series"
	ItemTypeMovie     ItemType = "movie"
)

// ItemTypes lists the valid item types in display order
var ItemTypes = []ItemType{ItemTypeVideogame, ItemTypeSeries, ItemTypeMovie}

// legacy spellings written by earlier clients
var itemTypeAliases = map[string]ItemType{
	"videojuego": ItemTypeVideogame,
	"serie":      ItemTypeSeries,
	"pelicula":   ItemTypeMovie,
	"película":   ItemTypeMovie,
}

// ParseItemType accepts canonical names and legacy aliases
func ParseItemType(s string) (ItemType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ItemTypes {
		if string(t) == s {
			return t, nil
		}
	}
	if t, ok := itemTypeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", catalogerrors.ErrInvalidItemType, s)
}

// Valid reports whether t is one of ItemTypes
func (t ItemType) Valid() bool {
	for _, v := range ItemTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Payload is the type-specific part of an item
type Payload interface {
	ItemType() ItemType
}

// VideogamePayload holds videogame-only fields
type VideogamePayload struct {
	Platform string
}

// ItemType implements Payload
func (VideogamePayload) ItemType() ItemType { return ItemTypeVideogame }

// SeriesPayload holds series-only fields
type SeriesPayload struct {
	Seasons int
}

// ItemType implements Payload
func (SeriesPayload) ItemType() ItemType { return ItemTypeSeries }

// MoviePayload holds movie-only fields
type MoviePayload struct {
	RuntimeMinutes int
}

// ItemType implements Payload
func (MoviePayload) ItemType() ItemType { return ItemTypeMovie }

// Item is a catalog entry. Type is fixed at creation and Payload always
// matches it.
type Item struct {
	ID          string
	Type        ItemType
	Title       string
	Genre       string
	Year        int
	Description string
	ImageURL    string
	Studio      string
	Payload     Payload
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemFields is the raw field bag for creating or updating an item. Nil
// fields are absent.
type ItemFields struct {
	Title          *string `json:"title,omitempty"`
	Genre          *string `json:"genre,omitempty"`
	Year           *int    `json:"year,omitempty" binding:"omitempty,min=0,max=3000"`
	Description    *string `json:"description,omitempty"`
	ImageURL       *string `json:"imageUrl,omitempty"`
	Studio         *string `json:"studio,omitempty"`
	Platform       *string `json:"platform,omitempty"`
	Seasons        *int    `json:"seasons,omitempty" binding:"omitempty,min=0"`
	RuntimeMinutes *int    `json:"runtimeMinutes,omitempty" binding:"omitempty,min=0"`
}

// NewItem builds an unsaved item of type t. Common fields default to their
// zero value and only the payload field belonging to t is kept.
func NewItem(t ItemType, f ItemFields) (*Item, error) {
	parsed, err := ParseItemType(string(t))
	if err != nil {
		return nil, err
	}

	item := &Item{
		Type:        parsed,
		Title:       deref(f.Title),
		Genre:       deref(f.Genre),
		Year:        derefInt(f.Year),
		Description: deref(f.Description),
		ImageURL:    deref(f.ImageURL),
		Studio:      deref(f.Studio),
	}

	switch parsed {
	case ItemTypeVideogame:
		item.Payload = VideogamePayload{Platform: deref(f.Platform)}
	case ItemTypeSeries:
		item.Payload = SeriesPayload{Seasons: derefInt(f.Seasons)}
	case ItemTypeMovie:
		item.Payload = MoviePayload{RuntimeMinutes: derefInt(f.RuntimeMinutes)}
	}

	return item, nil
}

// Apply overwrites the fields present in f. Payload fields that belong to
// another type are ignored.
func (i *Item) Apply(f ItemFields) {
	if f.Title != nil {
		i.Title = *f.Title
	}
	if f.Genre != nil {
		i.Genre = *f.Genre
	}
	if f.Year != nil {
		i.Year = *f.Year
	}
	if f.Description != nil {
		i.Description = *f.Description
	}
	if f.ImageURL != nil {
		i.ImageURL = *f.ImageURL
	}
	if f.Studio != nil {
		i.Studio = *f.Studio
	}

	switch p := i.Payload.(type) {
	case VideogamePayload:
		if f.Platform != nil {
			p.Platform = *f.Platform
		}
		i.Payload = p
	case SeriesPayload:
		if f.Seasons != nil {
			p.Seasons = *f.Seasons
		}
		i.Payload = p
	case MoviePayload:
		if f.RuntimeMinutes != nil {
			p.RuntimeMinutes = *f.RuntimeMinutes
		}
		i.Payload = p
	}
}

// Platform returns the videogame platform, if any
func (i *Item) Platform() (string, bool) {
	p, ok := i.Payload.(VideogamePayload)
	return p.Platform, ok
}

// Seasons returns the series season count, if any
func (i *Item) Seasons() (int, bool) {
	p, ok := i.Payload.(SeriesPayload)
	return p.Seasons, ok
}

// RuntimeMinutes returns the movie runtime, if any
func (i *Item) RuntimeMinutes() (int, bool) {
	p, ok := i.Payload.(MoviePayload)
	return p.RuntimeMinutes, ok
}

type itemJSON struct {
	ID             string    `json:"id,omitempty"`
	Type           ItemType  `json:"type"`
	Title          string    `json:"title"`
	Genre          string    `json:"genre"`
	Year           int       `json:"year"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	Studio         string    `json:"studio"`
	Platform       *string   `json:"platform,omitempty"`
	Seasons        *int      `json:"seasons,omitempty"`
	RuntimeMinutes *int      `json:"runtimeMinutes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MarshalJSON flattens the payload next to the common fields
func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		ID:          i.ID,
		Type:        i.Type,
		Title:       i.Title,
		Genre:       i.Genre,
		Year:        i.Year,
		Description: i.Description,
		ImageURL:    i.ImageURL,
		Studio:      i.Studio,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	switch p := i.Payload.(type) {
	case VideogamePayload:
		out.Platform = &p.Platform
	case SeriesPayload:
		out.Seasons = &p.Seasons
	case MoviePayload:
		out.RuntimeMinutes = &p.RuntimeMinutes
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the payload from the flattened form
func (i *Item) UnmarshalJSON(data []byte) error {
	var in itemJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	item, err := NewItem(in.Type, ItemFields{
		Title:          &in.Title,
		Genre:          &in.Genre,
		Year:           &in.Year,
		Description:    &in.Description,
		ImageURL:       &in.ImageURL,
		Studio:         &in.Studio,
		Platform:       in.Platform,
		Seasons:        in.Seasons,
		RuntimeMinutes: in.RuntimeMinutes,
	})
	if err != nil {
		return err
	}
	item.ID = in.ID
	item.CreatedAt = in.CreatedAt
	item.UpdatedAt = in.UpdatedAt
	*i = *item
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
