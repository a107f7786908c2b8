// Package omdb looks up movies and series on the OMDb API.
package omdb

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/httpclient"
	metadataerrors "github.com/mantonx/catalog/internal/modules/metadatamodule/errors"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
)

// DefaultBaseURL is the public OMDb endpoint
const DefaultBaseURL = "https://www.omdbapi.com"

// notAvailable is OMDb's placeholder for a missing field
const notAvailable = "N/A"

// Config holds OMDb client settings
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements types.Client for OMDb
type Client struct {
	apiKey string
	api    *httpclient.APIClient
}

var _ types.Client = (*Client)(nil)

// NewClient creates an OMDb client
func NewClient(cfg Config, logger hclog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		apiKey: cfg.APIKey,
		api:    httpclient.NewAPIClient(string(types.ProviderOMDB), base, cfg.Timeout, logger),
	}
}

// Provider implements types.Client
func (c *Client) Provider() types.Provider {
	return types.ProviderOMDB
}

type searchResponse struct {
	Response string         `json:"Response"`
	Error    string         `json:"Error"`
	Search   []searchResult `json:"Search"`
}

type searchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

type detailsResponse struct {
	Response     string `json:"Response"`
	Error        string `json:"Error"`
	Title        string `json:"Title"`
	Year         string `json:"Year"`
	Runtime      string `json:"Runtime"`
	Genre        string `json:"Genre"`
	Plot         string `json:"Plot"`
	Poster       string `json:"Poster"`
	Production   string `json:"Production"`
	Type         string `json:"Type"`
	TotalSeasons string `json:"totalSeasons"`
	IMDbID       string `json:"imdbID"`
}

// Search finds titles matching term, in OMDb's order. OMDb answers a miss
// with Response "False", which yields an empty list.
func (c *Client) Search(ctx context.Context, term string) ([]types.Match, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []types.Match{}, nil
	}

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("s", term)

	var resp searchResponse
	if err := c.api.GetJSON(ctx, "omdb.Search", "/", query, &resp); err != nil {
		return nil, err
	}
	if resp.Response != "True" {
		return []types.Match{}, nil
	}

	matches := make([]types.Match, 0, len(resp.Search))
	for _, r := range resp.Search {
		matches = append(matches, types.Match{
			Provider:   types.ProviderOMDB,
			ExternalID: r.IMDbID,
			Title:      r.Title,
			Year:       parseYear(r.Year),
			Type:       guessType(r.Type),
			ImageURL:   orEmpty(r.Poster),
		})
	}
	return matches, nil
}

// FetchDetails loads the full record for an IMDb id
func (c *Client) FetchDetails(ctx context.Context, externalID string) (*types.Details, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, metadataerrors.Validation("omdb.FetchDetails", metadataerrors.ErrMissingID)
	}

	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("i", externalID)
	query.Set("plot", "full")

	var resp detailsResponse
	if err := c.api.GetJSON(ctx, "omdb.FetchDetails", "/", query, &resp); err != nil {
		return nil, err
	}
	if resp.Response != "True" {
		return nil, metadataerrors.NoData("omdb.FetchDetails", string(types.ProviderOMDB), externalID)
	}

	t := guessType(resp.Type)
	d := &types.Details{
		Provider:    types.ProviderOMDB,
		ExternalID:  externalID,
		Type:        t,
		Title:       resp.Title,
		Description: orEmpty(resp.Plot),
		Year:        parseYear(resp.Year),
		Genre:       orEmpty(resp.Genre),
		ImageURL:    orEmpty(resp.Poster),
		Studio:      orEmpty(resp.Production),
	}
	if t == models.ItemTypeSeries {
		d.Seasons = atoi(resp.TotalSeasons)
	} else {
		d.RuntimeMinutes = parseRuntime(resp.Runtime)
	}
	return d, nil
}

func guessType(omdbType string) models.ItemType {
	if omdbType == "series" {
		return models.ItemTypeSeries
	}
	return models.ItemTypeMovie
}

func orEmpty(s string) string {
	if s == notAvailable {
		return ""
	}
	return s
}

// parseYear reads the leading four digits, so "2011–2019" is 2011
func parseYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	return atoi(s[:4])
}

// parseRuntime turns "155 min" into 155
func parseRuntime(s string) int {
	if s == notAvailable {
		return 0
	}
	return atoi(strings.TrimSuffix(strings.TrimSpace(s), " min"))
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
