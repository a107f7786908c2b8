package omdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	metadataerrors "github.com/mantonx/catalog/internal/modules/metadatamodule/errors"
	"github.com/mantonx/catalog/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{APIKey: "k", BaseURL: server.URL}, hclog.NewNullLogger())
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		assert.Equal(t, "dune", r.URL.Query().Get("s"))
		_, _ = w.Write([]byte(`{"Response":"True","Search":[
			{"Title":"Dune","Year":"2021","imdbID":"tt1160419","Type":"movie","Poster":"https://img/dune.jpg"},
			{"Title":"Dune","Year":"2000–2000","imdbID":"tt0142032","Type":"series","Poster":"N/A"}
		]}`))
	})

	matches, err := client.Search(context.Background(), " dune ")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "tt1160419", matches[0].ExternalID)
	assert.Equal(t, 2021, matches[0].Year)
	assert.Equal(t, models.ItemTypeMovie, matches[0].Type)
	assert.Equal(t, "https://img/dune.jpg", matches[0].ImageURL)

	assert.Equal(t, models.ItemTypeSeries, matches[1].Type)
	assert.Equal(t, 2000, matches[1].Year)
	assert.Empty(t, matches[1].ImageURL)
}

func TestSearchNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
	})

	matches, err := client.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchEmptyTermSkipsRequest(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	matches, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetchDetailsMovie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt1160419", r.URL.Query().Get("i"))
		assert.Equal(t, "full", r.URL.Query().Get("plot"))
		_, _ = w.Write([]byte(`{"Response":"True","Title":"Dune","Year":"2021","Runtime":"155 min",
			"Genre":"Action, Adventure","Plot":"Paul Atreides...","Poster":"N/A",
			"Production":"Legendary","Type":"movie","totalSeasons":"N/A"}`))
	})

	d, err := client.FetchDetails(context.Background(), "tt1160419")
	require.NoError(t, err)
	assert.Equal(t, "Dune", d.Title)
	assert.Equal(t, models.ItemTypeMovie, d.Type)
	assert.Equal(t, 155, d.RuntimeMinutes)
	assert.Zero(t, d.Seasons)
	assert.Equal(t, 2021, d.Year)
	assert.Empty(t, d.ImageURL)
	assert.Equal(t, "Legendary", d.Studio)
	assert.Equal(t, "Action, Adventure", d.Genre)
}

func TestFetchDetailsSeries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"True","Title":"Dark","Year":"2017–2020","Runtime":"60 min",
			"Genre":"Drama","Plot":"N/A","Poster":"https://img/dark.jpg","Production":"N/A",
			"Type":"series","totalSeasons":"3"}`))
	})

	d, err := client.FetchDetails(context.Background(), "tt5753856")
	require.NoError(t, err)
	assert.Equal(t, models.ItemTypeSeries, d.Type)
	assert.Equal(t, 3, d.Seasons)
	assert.Zero(t, d.RuntimeMinutes)
	assert.Equal(t, 2017, d.Year)
	assert.Empty(t, d.Description)
	assert.Empty(t, d.Studio)
}

func TestFetchDetailsNoData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	})

	_, err := client.FetchDetails(context.Background(), "tt0")
	require.Error(t, err)
	assert.True(t, metadataerrors.IsNoData(err))
}

func TestUpstreamStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Search(context.Background(), "dune")
	require.Error(t, err)
	assert.True(t, metadataerrors.IsUpstream(err))
	assert.ErrorIs(t, err, metadataerrors.ErrUpstreamStatus)

	var conv interface{ ToAppError() *types.AppError }
	require.ErrorAs(t, err, &conv)
	appErr := conv.ToAppError()
	assert.Equal(t, types.ErrorCodeUpstream, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.True(t, appErr.Retryable)
}

func TestParseRuntime(t *testing.T) {
	tests := map[string]int{
		"155 min": 155,
		"N/A":     0,
		"":        0,
		"90":      90,
		"1 h":     0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseRuntime(in), in)
	}
}
