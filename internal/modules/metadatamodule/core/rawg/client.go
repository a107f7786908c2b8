// Package rawg looks up videogames on the RAWG API.
package rawg

import (
	"context"
	"net/http"
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

const (
	// DefaultBaseURL is the public RAWG endpoint
	DefaultBaseURL = "https://api.rawg.io/api"

	// DefaultPageSize is how many search hits are requested
	DefaultPageSize = 15

	// DefaultDescriptionLimit caps descriptions, in characters
	DefaultDescriptionLimit = 400

	// MissingDescription replaces an empty description
	MissingDescription = "Información no disponible. Edita manualmente la descripción."
)

// Config holds RAWG client settings
type Config struct {
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	PageSize         int
	DescriptionLimit int
}

// Client implements types.Client for RAWG
type Client struct {
	apiKey    string
	pageSize  int
	descLimit int
	api       *httpclient.APIClient
}

var _ types.Client = (*Client)(nil)

// NewClient creates a RAWG client
func NewClient(cfg Config, logger hclog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		apiKey:    cfg.APIKey,
		pageSize:  cfg.PageSize,
		descLimit: cfg.DescriptionLimit,
		api:       httpclient.NewAPIClient(string(types.ProviderRAWG), base, cfg.Timeout, logger),
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if c.descLimit <= 0 {
		c.descLimit = DefaultDescriptionLimit
	}
	return c
}

// Provider implements types.Client
func (c *Client) Provider() types.Provider {
	return types.ProviderRAWG
}

type named struct {
	Name string `json:"name"`
}

type platformEntry struct {
	Platform named `json:"platform"`
}

type game struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	Released        string          `json:"released"`
	BackgroundImage string          `json:"background_image"`
	Rating          float64         `json:"rating"`
	Platforms       []platformEntry `json:"platforms"`
	Genres          []named         `json:"genres"`
}

type searchResponse struct {
	Count   int    `json:"count"`
	Results []game `json:"results"`
}

type gameDetails struct {
	game
	Description    string  `json:"description"`
	DescriptionRaw string  `json:"description_raw"`
	Developers     []named `json:"developers"`
}

// Search finds games matching term, most recently released first
func (c *Client) Search(ctx context.Context, term string) ([]types.Match, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []types.Match{}, nil
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("search", term)
	query.Set("page_size", strconv.Itoa(c.pageSize))
	query.Set("ordering", "-released")

	var resp searchResponse
	if err := c.api.GetJSON(ctx, "rawg.Search", "/games", query, &resp); err != nil {
		return nil, err
	}

	matches := make([]types.Match, 0, len(resp.Results))
	for _, g := range resp.Results {
		matches = append(matches, types.Match{
			Provider:   types.ProviderRAWG,
			ExternalID: strconv.Itoa(g.ID),
			Title:      g.Name,
			Year:       releaseYear(g.Released),
			Type:       models.ItemTypeVideogame,
			ImageURL:   g.BackgroundImage,
			Platforms:  joinPlatforms(g.Platforms),
			Genres:     joinNames(g.Genres),
			Rating:     g.Rating,
		})
	}
	return matches, nil
}

// FetchDetails loads the full record for a RAWG game id
func (c *Client) FetchDetails(ctx context.Context, externalID string) (*types.Details, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, metadataerrors.Validation("rawg.FetchDetails", metadataerrors.ErrMissingID)
	}

	query := url.Values{}
	query.Set("key", c.apiKey)

	var resp gameDetails
	err := c.api.GetJSON(ctx, "rawg.FetchDetails", "/games/"+url.PathEscape(externalID), query, &resp)
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return nil, metadataerrors.NoData("rawg.FetchDetails", string(types.ProviderRAWG), externalID)
		}
		return nil, err
	}
	if resp.ID == 0 && resp.Name == "" {
		return nil, metadataerrors.NoData("rawg.FetchDetails", string(types.ProviderRAWG), externalID)
	}

	return &types.Details{
		Provider:    types.ProviderRAWG,
		ExternalID:  externalID,
		Type:        models.ItemTypeVideogame,
		Title:       resp.Name,
		Description: Describe(resp.DescriptionRaw, resp.Description, c.descLimit),
		Year:        releaseYear(resp.Released),
		Genre:       joinNames(resp.Genres),
		ImageURL:    resp.BackgroundImage,
		Studio:      joinNames(resp.Developers),
		Platform:    joinPlatforms(resp.Platforms),
	}, nil
}

// releaseYear reads the year of a "2006-01-02" date
func releaseYear(released string) int {
	if t, err := time.Parse("2006-01-02", released); err == nil {
		return t.Year()
	}
	if len(released) >= 4 {
		if y, err := strconv.Atoi(released[:4]); err == nil {
			return y
		}
	}
	return 0
}

func joinNames(list []named) string {
	names := make([]string, 0, len(list))
	for _, n := range list {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return strings.Join(names, ", ")
}

func joinPlatforms(list []platformEntry) string {
	names := make([]named, 0, len(list))
	for _, p := range list {
		names = append(names, p.Platform)
	}
	return joinNames(names)
}
