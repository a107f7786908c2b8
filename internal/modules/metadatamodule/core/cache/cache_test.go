package cache

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func setupCache(t *testing.T) (*Cache, *fakeClock) {
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.MetadataCacheEntry{}))
	t.Cleanup(func() { _ = database.Close(db) })

	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(db, time.Hour, hclog.NewNullLogger()).WithClock(clock.now), clock
}

func TestHashQueryNormalises(t *testing.T) {
	assert.Equal(t, HashQuery("Dune"), HashQuery("  dune "))
	assert.NotEqual(t, HashQuery("dune"), HashQuery("dune 2"))
	assert.Len(t, HashQuery("x"), 32)
}

func TestGetPut(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	var out payload
	assert.False(t, c.Get(ctx, "omdb", QueryDetails, "tt1", &out))

	c.Put(ctx, "omdb", QueryDetails, "tt1", payload{Title: "Dune", Year: 2021})
	require.True(t, c.Get(ctx, "omdb", QueryDetails, "tt1", &out))
	assert.Equal(t, payload{Title: "Dune", Year: 2021}, out)

	assert.False(t, c.Get(ctx, "rawg", QueryDetails, "tt1", &out))
	assert.False(t, c.Get(ctx, "omdb", QuerySearch, "tt1", &out))
}

func TestPutReplaces(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	c.Put(ctx, "omdb", QuerySearch, "dune", []payload{{Title: "old"}})
	c.Put(ctx, "omdb", QuerySearch, "dune", []payload{{Title: "new"}})

	var out []payload
	require.True(t, c.Get(ctx, "omdb", QuerySearch, "dune", &out))
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].Title)
}

func TestExpiry(t *testing.T) {
	c, clock := setupCache(t)
	ctx := context.Background()

	c.Put(ctx, "rawg", QueryDetails, "42", payload{Title: "Hades"})
	clock.t = clock.t.Add(2 * time.Hour)

	var out payload
	assert.False(t, c.Get(ctx, "rawg", QueryDetails, "42", &out))

	removed, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestDisabledCache(t *testing.T) {
	c := New(nil, 0, nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	c.Put(ctx, "omdb", QuerySearch, "dune", payload{})
	var out payload
	assert.False(t, c.Get(ctx, "omdb", QuerySearch, "dune", &out))
	n, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadFailureIsMiss(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	// table never migrated
	c := New(db, time.Hour, hclog.NewNullLogger())
	var out payload
	assert.False(t, c.Get(context.Background(), "omdb", QuerySearch, "dune", &out))
	c.Put(context.Background(), "omdb", QuerySearch, "dune", payload{})
}
