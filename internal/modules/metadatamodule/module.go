// Package metadatamodule wires the OMDb and RAWG lookups, their response
// cache and the metadata HTTP API into the module system.
package metadatamodule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/api"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/cache"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/omdb"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/core/rawg"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/service"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
	"github.com/mantonx/catalog/internal/services"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the metadata module
	ModuleID = "system.metadata"

	// ModuleName is the display name for the metadata module
	ModuleName = "Metadata"
)

// cleanupInterval is how often expired cache rows are purged
const cleanupInterval = time.Hour

// Module implements metadata lookups as a module
type Module struct {
	service        *service.LookupService
	allowedOrigins []string
	logger         hclog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var (
	_ modulemanager.RouteRegistrar = (*Module)(nil)
	_ modulemanager.Shutdowner     = (*Module)(nil)
	_ modulemanager.HealthChecker  = (*Module)(nil)
)

// NewModule creates an uninitialised metadata module
func NewModule() *Module {
	return &Module{}
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return false
}

// Migrate creates the metadata cache table
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.MetadataCacheEntry{}); err != nil {
		return fmt.Errorf("failed to migrate metadata cache: %w", err)
	}
	return nil
}

// Init builds a client for every provider with an API key and registers
// the lookup service
func (m *Module) Init(mctx *modulemanager.Context) error {
	m.logger = mctx.Logger.Named("metadata")
	m.allowedOrigins = mctx.Config.Server.AllowedOrigins
	cfg := mctx.Config.Metadata

	var clients []types.Client
	if cfg.OMDBAPIKey != "" {
		clients = append(clients, omdb.NewClient(omdb.Config{
			APIKey:  cfg.OMDBAPIKey,
			BaseURL: cfg.OMDBBaseURL,
			Timeout: cfg.RequestTimeout,
		}, m.logger.Named("omdb")))
	} else {
		m.logger.Warn("OMDB_API_KEY not set, movie and series lookups disabled")
	}
	if cfg.RAWGAPIKey != "" {
		clients = append(clients, rawg.NewClient(rawg.Config{
			APIKey:           cfg.RAWGAPIKey,
			BaseURL:          cfg.RAWGBaseURL,
			Timeout:          cfg.RequestTimeout,
			PageSize:         cfg.SearchPageSize,
			DescriptionLimit: cfg.DescriptionLimit,
		}, m.logger.Named("rawg")))
	} else {
		m.logger.Warn("RAWG_API_KEY not set, videogame lookups disabled")
	}

	var responseCache *cache.Cache
	if cfg.CacheEnabled && mctx.DB != nil {
		responseCache = cache.New(mctx.DB, cfg.CacheTTL, m.logger.Named("cache"))
	}

	m.service = service.NewLookupService(service.Options{
		Clients:        clients,
		Cache:          responseCache,
		DebounceWindow: cfg.DebounceWindow,
		Logger:         m.logger.Named("service"),
	})

	if mctx.Services != nil {
		services.Register[services.MetadataService](mctx.Services, services.MetadataServiceName, m.service)
	}

	if responseCache.Enabled() {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.cleanupLoop(ctx)
	}

	m.logger.Info("metadata module initialized", "providers", m.service.Providers(), "cache", responseCache.Enabled())
	return nil
}

func (m *Module) cleanupLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.service.CleanupCache(ctx); err != nil {
				m.logger.Warn("metadata cache cleanup failed", "error", err)
			}
		}
	}
}

// Service returns the lookup service; nil before Init
func (m *Module) Service() *service.LookupService {
	return m.service
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	handler := api.NewHandler(m.service, m.allowedOrigins, m.logger.Named("api"))
	api.RegisterRoutes(router, handler)
}

// HealthCheck reports degraded when no provider has an API key
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	providers := m.service.Providers()
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
		Details:     map[string]interface{}{"providers": providers},
	}
	switch len(providers) {
	case 0:
		status.Status = modulemanager.HealthStateDegraded
		status.Message = "no metadata provider configured"
	case 1:
		status.Message = fmt.Sprintf("only %s configured", providers[0])
	}
	return status
}

// Shutdown stops the cache cleanup loop
func (m *Module) Shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
