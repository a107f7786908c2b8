package docstore

import (
	"time"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// Field names shared by queries and documents
const (
	fieldCreatedAt = "createdAt"
	fieldItemID    = "itemId"
	fieldType      = "type"
)

type itemDoc struct {
	Type           string    `firestore:"type"`
	Title          string    `firestore:"title"`
	Genre          string    `firestore:"genre"`
	Year           int       `firestore:"year"`
	Description    string    `firestore:"description"`
	ImageURL       string    `firestore:"imageUrl"`
	Studio         string    `firestore:"studio"`
	Platform       *string   `firestore:"platform,omitempty"`
	Seasons        *int      `firestore:"seasons,omitempty"`
	RuntimeMinutes *int      `firestore:"runtimeMinutes,omitempty"`
	CreatedAt      time.Time `firestore:"createdAt"`
	UpdatedAt      time.Time `firestore:"updatedAt"`

	// Spanish field names used by documents from earlier clients, read only.
	// Numbers were stored as strings or numbers.
	Titulo      string      `firestore:"titulo,omitempty"`
	Genero      string      `firestore:"genero,omitempty"`
	Anio        interface{} `firestore:"anio,omitempty"`
	Descripcion string      `firestore:"descripcion,omitempty"`
	Imagen      string      `firestore:"imagen,omitempty"`
	Estudio     string      `firestore:"estudio,omitempty"`
	Plataforma  string      `firestore:"plataforma,omitempty"`
	Temporadas  interface{} `firestore:"temporadas,omitempty"`
	Duracion    interface{} `firestore:"duracion,omitempty"`
}

type commentDoc struct {
	ItemID    string    `firestore:"itemId"`
	UserID    string    `firestore:"userId"`
	UserName  string    `firestore:"userName"`
	Text      string    `firestore:"text"`
	Rating    *int      `firestore:"rating"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func docFromItem(item *models.Item) *itemDoc {
	doc := &itemDoc{
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
		doc.Platform = &p.Platform
	case models.SeriesPayload:
		doc.Seasons = &p.Seasons
	case models.MoviePayload:
		doc.RuntimeMinutes = &p.RuntimeMinutes
	}
	return doc
}

// itemFromDoc rebuilds an item. Documents written by older clients may carry
// a legacy type spelling and Spanish field names; current names win.
func itemFromDoc(id string, doc *itemDoc) *models.Item {
	itemType, err := models.ParseItemType(doc.Type)
	if err != nil {
		itemType = models.ItemType(doc.Type)
	}

	item := &models.Item{
		ID:          id,
		Type:        itemType,
		Title:       orString(doc.Title, doc.Titulo),
		Genre:       orString(doc.Genre, doc.Genero),
		Year:        orInt(doc.Year, doc.Anio),
		Description: orString(doc.Description, doc.Descripcion),
		ImageURL:    orString(doc.ImageURL, doc.Imagen),
		Studio:      orString(doc.Studio, doc.Estudio),
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}

	switch itemType {
	case models.ItemTypeVideogame:
		p := models.VideogamePayload{Platform: doc.Plataforma}
		if doc.Platform != nil {
			p.Platform = *doc.Platform
		}
		item.Payload = p
	case models.ItemTypeSeries:
		p := models.SeriesPayload{Seasons: orInt(0, doc.Temporadas)}
		if doc.Seasons != nil {
			p.Seasons = *doc.Seasons
		}
		item.Payload = p
	case models.ItemTypeMovie:
		p := models.MoviePayload{RuntimeMinutes: orInt(0, doc.Duracion)}
		if doc.RuntimeMinutes != nil {
			p.RuntimeMinutes = *doc.RuntimeMinutes
		}
		item.Payload = p
	}
	return item
}

func orString(current, legacy string) string {
	if current != "" {
		return current
	}
	return legacy
}

// orInt falls back to a legacy value stored as a number or a numeric string
func orInt(current int, legacy interface{}) int {
	if current != 0 {
		return current
	}
	switch v := legacy.(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := models.LeadingInt(v)
		return n
	}
	return 0
}

func docFromComment(c *models.Comment) *commentDoc {
	return &commentDoc{
		ItemID:    c.ItemID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Text:      c.Text,
		Rating:    c.Rating,
		CreatedAt: c.CreatedAt,
	}
}

func commentFromDoc(id string, doc *commentDoc) *models.Comment {
	return &models.Comment{
		ID:        id,
		ItemID:    doc.ItemID,
		UserID:    doc.UserID,
		UserName:  doc.UserName,
		Text:      doc.Text,
		Rating:    doc.Rating,
		CreatedAt: doc.CreatedAt.UTC(),
	}
}
