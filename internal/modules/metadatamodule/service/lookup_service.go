// Package service implements metadata lookups across providers.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/cache"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/debounce"
	metadataerrors "github.com/mantonx/catalog/internal/modules/metadatamodule/errors"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
	"github.com/mantonx/catalog/internal/services"
)

// Options configures a LookupService
type Options struct {
	// Clients holds one client per provider with a configured API key
	Clients        []types.Client
	Cache          *cache.Cache
	DebounceWindow time.Duration
	Logger         hclog.Logger
}

// LookupService routes searches to the provider for an item type and
// caches the answers
type LookupService struct {
	clients map[types.Provider]types.Client
	cache   *cache.Cache
	window  time.Duration
	logger  hclog.Logger
}

var _ services.MetadataService = (*LookupService)(nil)

// NewLookupService creates a lookup service
func NewLookupService(opts Options) *LookupService {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	clients := make(map[types.Provider]types.Client, len(opts.Clients))
	for _, c := range opts.Clients {
		clients[c.Provider()] = c
	}
	return &LookupService{
		clients: clients,
		cache:   opts.Cache,
		window:  opts.DebounceWindow,
		logger:  opts.Logger,
	}
}

// Providers lists the providers that can be queried
func (s *LookupService) Providers() []types.Provider {
	out := make([]types.Provider, 0, len(s.clients))
	for _, p := range []types.Provider{types.ProviderOMDB, types.ProviderRAWG} {
		if _, ok := s.clients[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *LookupService) clientFor(op string, itemType models.ItemType) (types.Client, error) {
	if !itemType.Valid() {
		return nil, metadataerrors.Validation(op, fmt.Errorf("%w: %q", metadataerrors.ErrUnsupportedType, itemType))
	}
	provider := types.ProviderFor(itemType)
	client, ok := s.clients[provider]
	if !ok {
		return nil, metadataerrors.Validation(op, fmt.Errorf("%w for %s", metadataerrors.ErrMissingAPIKey, provider))
	}
	return client, nil
}

// Search returns matches for term from the provider serving itemType.
// A blank term returns an empty list without contacting anyone.
func (s *LookupService) Search(ctx context.Context, itemType models.ItemType, term string) ([]types.Match, error) {
	client, err := s.clientFor("Search", itemType)
	if err != nil {
		return nil, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return []types.Match{}, nil
	}

	provider := string(client.Provider())
	var cached []types.Match
	if s.cache.Get(ctx, provider, cache.QuerySearch, term, &cached) {
		s.logger.Debug("metadata cache hit", "provider", provider, "type", cache.QuerySearch)
		return cached, nil
	}

	matches, err := client.Search(ctx, term)
	if err != nil {
		s.logger.Warn("metadata search failed", "provider", provider, "error", err)
		return nil, err
	}

	s.cache.Put(ctx, provider, cache.QuerySearch, term, matches)
	return matches, nil
}

// Details fetches the normalised record for externalID
func (s *LookupService) Details(ctx context.Context, itemType models.ItemType, externalID string) (*types.Details, error) {
	client, err := s.clientFor("Details", itemType)
	if err != nil {
		return nil, err
	}

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, metadataerrors.Validation("Details", metadataerrors.ErrMissingID)
	}

	provider := string(client.Provider())
	var cached types.Details
	if s.cache.Get(ctx, provider, cache.QueryDetails, externalID, &cached) {
		s.logger.Debug("metadata cache hit", "provider", provider, "type", cache.QueryDetails)
		return &cached, nil
	}

	details, err := client.FetchDetails(ctx, externalID)
	if err != nil {
		if !metadataerrors.IsNoData(err) {
			s.logger.Warn("metadata details failed", "provider", provider, "id", externalID, "error", err)
		}
		return nil, err
	}

	s.cache.Put(ctx, provider, cache.QueryDetails, externalID, details)
	return details, nil
}

// NewAutocomplete returns a debouncer that searches itemType's provider.
// The caller closes it.
func (s *LookupService) NewAutocomplete(ctx context.Context, itemType models.ItemType, onResult debounce.ResultFunc) (*debounce.Debouncer, error) {
	if _, err := s.clientFor("Autocomplete", itemType); err != nil {
		return nil, err
	}
	search := func(ctx context.Context, term string) ([]types.Match, error) {
		return s.Search(ctx, itemType, term)
	}
	return debounce.New(ctx, s.window, search, onResult), nil
}

// CleanupCache drops expired cache entries
func (s *LookupService) CleanupCache(ctx context.Context) (int64, error) {
	return s.cache.Cleanup(ctx)
}
