package repository

import (
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

func itemFromRecord(rec *database.ItemRecord) *models.Item {
	item := &models.Item{
		ID:          rec.ID,
		Type:        models.ItemType(rec.Type),
		Title:       rec.Title,
		Genre:       rec.Genre,
		Year:        rec.Year,
		Description: rec.Description,
		ImageURL:    rec.ImageURL,
		Studio:      rec.Studio,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}

	switch item.Type {
	case models.ItemTypeVideogame:
		p := models.VideogamePayload{}
		if rec.Platform != nil {
			p.Platform = *rec.Platform
		}
		item.Payload = p
	case models.ItemTypeSeries:
		p := models.SeriesPayload{}
		if rec.Seasons != nil {
			p.Seasons = *rec.Seasons
		}
		item.Payload = p
	case models.ItemTypeMovie:
		p := models.MoviePayload{}
		if rec.RuntimeMinutes != nil {
			p.RuntimeMinutes = *rec.RuntimeMinutes
		}
		item.Payload = p
	}

	return item
}

func recordFromItem(item *models.Item) *database.ItemRecord {
	rec := &database.ItemRecord{
		ID:          item.ID,
		Type:        string(item.Type),
		Title:       item.Title,
		Genre:       item.Genre,
		Year:        item.Year,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		Studio:      item.Studio,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}

	switch p := item.Payload.(type) {
	case models.VideogamePayload:
		rec.Platform = &p.Platform
	case models.SeriesPayload:
		rec.Seasons = &p.Seasons
	case models.MoviePayload:
		rec.RuntimeMinutes = &p.RuntimeMinutes
	}

	return rec
}

func commentFromRecord(rec *database.CommentRecord) *models.Comment {
	return &models.Comment{
		ID:        rec.ID,
		ItemID:    rec.ItemID,
		UserID:    rec.UserID,
		UserName:  rec.UserName,
		Text:      rec.Text,
		Rating:    rec.Rating,
		CreatedAt: rec.CreatedAt,
	}
}
