package docstore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestItemDocConversion(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	item := &models.Item{
		ID:        "x",
		Type:      models.ItemTypeSeries,
		Title:     "Dark",
		Payload:   models.SeriesPayload{Seasons: 3},
		CreatedAt: now,
		UpdatedAt: now,
	}

	doc := docFromItem(item)
	assert.Equal(t, "series", doc.Type)
	require.NotNil(t, doc.Seasons)
	assert.Equal(t, 3, *doc.Seasons)
	assert.Nil(t, doc.Platform)
	assert.Nil(t, doc.RuntimeMinutes)

	back := itemFromDoc("x", doc)
	assert.Equal(t, item, back)
}

func TestItemFromDocNormalisesLegacyType(t *testing.T) {
	item := itemFromDoc("g", &itemDoc{Type: "videojuego", Platform: strPtr("PS2")})
	assert.Equal(t, models.ItemTypeVideogame, item.Type)
	assert.Equal(t, models.VideogamePayload{Platform: "PS2"}, item.Payload)

	movie := itemFromDoc("m", &itemDoc{Type: "pelicula"})
	assert.Equal(t, models.MoviePayload{}, movie.Payload)
}

func TestItemFromDocReadsLegacyFields(t *testing.T) {
	movie := itemFromDoc("m", &itemDoc{
		Type:        "pelicula",
		Titulo:      "Dune",
		Genero:      "Sci-Fi",
		Anio:        "2021",
		Descripcion: "Arrakis",
		Imagen:      "https://img/dune.jpg",
		Estudio:     "Legendary",
		Duracion:    "155",
	})
	assert.Equal(t, models.ItemTypeMovie, movie.Type)
	assert.Equal(t, "Dune", movie.Title)
	assert.Equal(t, "Sci-Fi", movie.Genre)
	assert.Equal(t, 2021, movie.Year)
	assert.Equal(t, "Arrakis", movie.Description)
	assert.Equal(t, "https://img/dune.jpg", movie.ImageURL)
	assert.Equal(t, "Legendary", movie.Studio)
	assert.Equal(t, models.MoviePayload{RuntimeMinutes: 155}, movie.Payload)

	series := itemFromDoc("s", &itemDoc{Type: "serie", Titulo: "Dark", Anio: int64(2017), Temporadas: int64(3)})
	assert.Equal(t, 2017, series.Year)
	assert.Equal(t, models.SeriesPayload{Seasons: 3}, series.Payload)

	game := itemFromDoc("g", &itemDoc{Type: "videojuego", Titulo: "Okami", Plataforma: "PS2", Anio: ""})
	assert.Equal(t, "Okami", game.Title)
	assert.Equal(t, 0, game.Year)
	assert.Equal(t, models.VideogamePayload{Platform: "PS2"}, game.Payload)

	// current field names win over legacy ones
	mixed := itemFromDoc("x", &itemDoc{Type: "movie", Title: "Alien", Titulo: "Alien (ES)", Year: 1979, Anio: "1980"})
	assert.Equal(t, "Alien", mixed.Title)
	assert.Equal(t, 1979, mixed.Year)
}

func TestItemDocOmitsLegacyFields(t *testing.T) {
	item, err := models.NewItem(models.ItemTypeMovie, models.ItemFields{Title: strPtr("Dune")})
	require.NoError(t, err)

	doc := docFromItem(item)
	assert.Empty(t, doc.Titulo)
	assert.Nil(t, doc.Anio)
	assert.Nil(t, doc.Duracion)
}

func TestCommentDocConversion(t *testing.T) {
	c := &models.Comment{ItemID: "i", UserName: "ana", Text: "ok", Rating: intPtr(4)}
	doc := docFromComment(c)
	back := commentFromDoc("c1", doc)
	assert.Equal(t, "c1", back.ID)
	assert.Equal(t, "i", back.ItemID)
	require.NotNil(t, back.Rating)
	assert.Equal(t, 4, *back.Rating)
}

// emulatorStore connects to the Firestore emulator with a throwaway project
func emulatorStore(t *testing.T) *Store {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "catalog-test-"+uuid.New().String()[:8])
	require.NoError(t, err)

	store := NewWithClient(client, hclog.NewNullLogger())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEmulatorItemLifecycle(t *testing.T) {
	store := emulatorStore(t)
	ctx := context.Background()

	created, err := store.CreateItem(ctx, models.ItemTypeMovie, models.ItemFields{
		Title:          strPtr("Dune"),
		Year:           intPtr(2021),
		RuntimeMinutes: intPtr(155),
	})
	require.NoError(t, err)

	fetched, err := store.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", fetched.Title)
	assert.Equal(t, models.MoviePayload{RuntimeMinutes: 155}, fetched.Payload)

	updated, err := store.UpdateItem(ctx, created.ID, models.ItemFields{Genre: strPtr("Sci-Fi")})
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", updated.Genre)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	require.NoError(t, store.DeleteItem(ctx, created.ID))
	_, err = store.GetItem(ctx, created.ID)
	assert.ErrorIs(t, err, catalogerrors.ErrItemNotFound)
	assert.NoError(t, store.DeleteItem(ctx, created.ID))

	_, err = store.UpdateItem(ctx, created.ID, models.ItemFields{})
	assert.ErrorIs(t, err, catalogerrors.ErrItemNotFound)
}

func TestEmulatorSnapshotFeed(t *testing.T) {
	store := emulatorStore(t)
	ctx := context.Background()

	snapshots := make(chan []*models.Item, 16)
	sub, err := store.SubscribeItems(ctx, func(items []*models.Item) {
		snapshots <- items
	}, func(err error) {
		t.Errorf("unexpected feed error: %v", err)
	})
	require.NoError(t, err)

	select {
	case initial := <-snapshots:
		assert.Empty(t, initial)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	_, err = store.CreateItem(ctx, models.ItemTypeSeries, models.ItemFields{Title: strPtr("Dark")})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case items := <-snapshots:
			return len(items) == 1 && items[0].Title == "Dark"
		default:
			return false
		}
	}, 5*time.Second, 20*time.Millisecond)

	sub.Unsubscribe()
	sub.Unsubscribe()

	_, err = store.CreateItem(ctx, models.ItemTypeMovie, models.ItemFields{})
	require.NoError(t, err)
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, snapshots)
}
