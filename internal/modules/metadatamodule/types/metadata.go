// Package types provides type definitions for the metadata module
package types

import (
	"context"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// Provider names an upstream metadata source
type Provider string

const (
	ProviderOMDB Provider = "omdb"
	ProviderRAWG Provider = "rawg"
)

// ProviderFor picks the upstream that knows about items of type t
func ProviderFor(t models.ItemType) Provider {
	if t == models.ItemTypeVideogame {
		return ProviderRAWG
	}
	return ProviderOMDB
}

// Match is a lightweight search hit used to populate an autocomplete list
type Match struct {
	Provider   Provider        `json:"provider"`
	ExternalID string          `json:"externalId"`
	Title      string          `json:"title"`
	Year       int             `json:"year,omitempty"`
	Type       models.ItemType `json:"type"`
	ImageURL   string          `json:"imageUrl"`

	// videogame matches only
	Platforms string  `json:"platforms,omitempty"`
	Genres    string  `json:"genres,omitempty"`
	Rating    float64 `json:"rating,omitempty"`
}

// Details is the normalised full record used to prefill an item form
type Details struct {
	Provider       Provider        `json:"provider"`
	ExternalID     string          `json:"externalId"`
	Type           models.ItemType `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Year           int             `json:"year,omitempty"`
	Genre          string          `json:"genre"`
	ImageURL       string          `json:"imageUrl"`
	Studio         string          `json:"studio"`
	RuntimeMinutes int             `json:"runtimeMinutes,omitempty"`
	Seasons        int             `json:"seasons,omitempty"`
	Platform       string          `json:"platform,omitempty"`
}

// ItemFields converts the record into a field bag for creating an item.
// Fields for other item types are left out by the item constructor.
func (d *Details) ItemFields() models.ItemFields {
	f := models.ItemFields{
		Title:       strField(d.Title),
		Genre:       strField(d.Genre),
		Description: strField(d.Description),
		ImageURL:    strField(d.ImageURL),
		Studio:      strField(d.Studio),
		Platform:    strField(d.Platform),
	}
	if d.Year > 0 {
		y := d.Year
		f.Year = &y
	}
	if d.RuntimeMinutes > 0 {
		r := d.RuntimeMinutes
		f.RuntimeMinutes = &r
	}
	if d.Seasons > 0 {
		s := d.Seasons
		f.Seasons = &s
	}
	return f
}

func strField(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Client is one upstream lookup pipeline
type Client interface {
	Provider() Provider
	// Search returns matches in upstream order. An empty term yields no
	// matches and no request.
	Search(ctx context.Context, term string) ([]Match, error)
	FetchDetails(ctx context.Context, externalID string) (*Details, error)
}
