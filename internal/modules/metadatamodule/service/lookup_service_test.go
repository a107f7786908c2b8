package service

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/cache"
	metadataerrors "github.com/mantonx/catalog/internal/modules/metadatamodule/errors"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient is a mock implementation of types.Client
type MockClient struct {
	mock.Mock
	provider types.Provider
}

func (m *MockClient) Provider() types.Provider {
	return m.provider
}

func (m *MockClient) Search(ctx context.Context, term string) ([]types.Match, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Match), args.Error(1)
}

func (m *MockClient) FetchDetails(ctx context.Context, externalID string) (*types.Details, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Details), args.Error(1)
}

func newCache(t *testing.T) *cache.Cache {
	db, err := database.Open(config.DatabaseConfig{Type: "sqlite", Path: ":memory:", MaxOpenConns: 1, LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.MetadataCacheEntry{}))
	t.Cleanup(func() { _ = database.Close(db) })
	return cache.New(db, time.Hour, hclog.NewNullLogger())
}

func TestSearchRoutesByType(t *testing.T) {
	omdb := &MockClient{provider: types.ProviderOMDB}
	rawg := &MockClient{provider: types.ProviderRAWG}
	svc := NewLookupService(Options{Clients: []types.Client{omdb, rawg}})

	omdb.On("Search", mock.Anything, "dune").Return([]types.Match{{Title: "Dune"}}, nil).Once()
	rawg.On("Search", mock.Anything, "zelda").Return([]types.Match{{Title: "Zelda"}}, nil).Once()

	matches, err := svc.Search(context.Background(), models.ItemTypeSeries, " dune ")
	require.NoError(t, err)
	assert.Equal(t, "Dune", matches[0].Title)

	matches, err = svc.Search(context.Background(), models.ItemTypeVideogame, "zelda")
	require.NoError(t, err)
	assert.Equal(t, "Zelda", matches[0].Title)

	omdb.AssertExpectations(t)
	rawg.AssertExpectations(t)
}

func TestCacheHitSkipsUpstream(t *testing.T) {
	omdb := &MockClient{provider: types.ProviderOMDB}
	svc := NewLookupService(Options{Clients: []types.Client{omdb}, Cache: newCache(t)})

	omdb.On("FetchDetails", mock.Anything, "tt1160419").
		Return(&types.Details{Provider: types.ProviderOMDB, ExternalID: "tt1160419", Title: "Dune", RuntimeMinutes: 155}, nil).
		Once()
	omdb.On("Search", mock.Anything, "dune").Return([]types.Match{{Title: "Dune", Year: 2021}}, nil).Once()

	for i := 0; i < 2; i++ {
		d, err := svc.Details(context.Background(), models.ItemTypeMovie, "tt1160419")
		require.NoError(t, err)
		assert.Equal(t, 155, d.RuntimeMinutes)

		matches, err := svc.Search(context.Background(), models.ItemTypeMovie, "dune")
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 2021, matches[0].Year)
	}

	omdb.AssertNumberOfCalls(t, "FetchDetails", 1)
	omdb.AssertNumberOfCalls(t, "Search", 1)
}

func TestFailuresAreNotCached(t *testing.T) {
	rawg := &MockClient{provider: types.ProviderRAWG}
	svc := NewLookupService(Options{Clients: []types.Client{rawg}, Cache: newCache(t)})

	noData := metadataerrors.NoData("rawg.FetchDetails", "rawg", "1")
	rawg.On("FetchDetails", mock.Anything, "1").Return(nil, noData).Twice()

	for i := 0; i < 2; i++ {
		_, err := svc.Details(context.Background(), models.ItemTypeVideogame, "1")
		assert.True(t, metadataerrors.IsNoData(err))
	}
	rawg.AssertExpectations(t)
}

func TestMissingAPIKey(t *testing.T) {
	svc := NewLookupService(Options{Clients: []types.Client{&MockClient{provider: types.ProviderOMDB}}})

	_, err := svc.Search(context.Background(), models.ItemTypeVideogame, "zelda")
	require.Error(t, err)
	assert.ErrorIs(t, err, metadataerrors.ErrMissingAPIKey)

	var me *metadataerrors.MetadataError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, metadataerrors.ErrorTypeValidation, me.Type)

	assert.Equal(t, []types.Provider{types.ProviderOMDB}, svc.Providers())
}

func TestInputValidation(t *testing.T) {
	omdb := &MockClient{provider: types.ProviderOMDB}
	svc := NewLookupService(Options{Clients: []types.Client{omdb}})

	_, err := svc.Search(context.Background(), models.ItemType("book"), "x")
	assert.ErrorIs(t, err, metadataerrors.ErrUnsupportedType)

	_, err = svc.Details(context.Background(), models.ItemTypeMovie, " ")
	assert.ErrorIs(t, err, metadataerrors.ErrMissingID)

	matches, err := svc.Search(context.Background(), models.ItemTypeMovie, "")
	require.NoError(t, err)
	assert.Empty(t, matches)

	omdb.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestAutocomplete(t *testing.T) {
	rawg := &MockClient{provider: types.ProviderRAWG}
	svc := NewLookupService(Options{Clients: []types.Client{rawg}, DebounceWindow: 10 * time.Millisecond})

	rawg.On("Search", mock.Anything, "hades").Return([]types.Match{{Title: "Hades"}}, nil).Once()

	got := make(chan []types.Match, 1)
	d, err := svc.NewAutocomplete(context.Background(), models.ItemTypeVideogame, func(term string, m []types.Match, err error) {
		assert.NoError(t, err)
		got <- m
	})
	require.NoError(t, err)
	defer d.Close()

	d.Trigger("h")
	d.Trigger("hades")

	select {
	case m := <-got:
		require.Len(t, m, 1)
		assert.Equal(t, "Hades", m[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no autocomplete result")
	}

	_, err = svc.NewAutocomplete(context.Background(), models.ItemTypeMovie, nil)
	assert.ErrorIs(t, err, metadataerrors.ErrMissingAPIKey)
}
