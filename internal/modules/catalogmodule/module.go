// Package catalogmodule wires item and comment storage, live views and the
// catalog HTTP API into the module system.
package catalogmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/api"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/docstore"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/live"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/rating"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/repository"
	catalogerrors "github.com/mantonx/catalog/internal/modules/catalogmodule/errors"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/service"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
	"github.com/mantonx/catalog/internal/services"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the catalog module
	ModuleID = "system.catalog"

	// ModuleName is the display name for the catalog module
	ModuleName = "Catalog"
)

const (
	backendSQL       = "sql"
	backendFirestore = "firestore"
)

// Module implements the catalog as a module
type Module struct {
	backend        string
	db             *gorm.DB
	docs           *docstore.Store
	service        *service.CatalogService
	registry       *services.Registry
	allowedOrigins []string
	logger         hclog.Logger
}

var (
	_ modulemanager.RouteRegistrar = (*Module)(nil)
	_ modulemanager.Shutdowner     = (*Module)(nil)
	_ modulemanager.HealthChecker  = (*Module)(nil)
)

// NewModule creates an uninitialised catalog module
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
	return true
}

// Migrate creates the items and comments tables
func (m *Module) Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&database.ItemRecord{}, &database.CommentRecord{}); err != nil {
		return fmt.Errorf("failed to migrate catalog models: %w", err)
	}
	return nil
}

// Init builds the store selected by configuration and the catalog service
func (m *Module) Init(mctx *modulemanager.Context) error {
	m.logger = mctx.Logger.Named("catalog")
	m.registry = mctx.Services
	m.allowedOrigins = mctx.Config.Server.AllowedOrigins
	m.backend = mctx.Config.Store.Backend

	policy, err := rating.ParsePolicy(mctx.Config.Catalog.UnratedPolicy)
	if err != nil {
		return err
	}

	opts := service.Options{
		Bus:    mctx.Bus,
		Policy: policy,
		Logger: m.logger.Named("service"),
	}

	switch m.backend {
	case "", backendSQL:
		if mctx.DB == nil {
			return fmt.Errorf("catalog sql backend needs a database")
		}
		if mctx.Bus == nil {
			return fmt.Errorf("catalog sql backend needs the event bus for live views")
		}
		m.backend = backendSQL
		m.db = mctx.DB
		items := repository.NewItemRepository(mctx.DB)
		opts.Items = items
		opts.Comments = repository.NewCommentRepository(mctx.DB)
		opts.Feed = live.NewBusFeed(items, mctx.Bus, m.logger.Named("feed"))

	case backendFirestore:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := docstore.New(ctx, docstore.Config{
			ProjectID:       mctx.Config.Store.ProjectID,
			CredentialsFile: mctx.Config.Store.CredentialsFile,
		}, m.logger.Named("firestore"))
		if err != nil {
			return err
		}
		m.docs = store
		opts.Items = store
		opts.Comments = store
		opts.Feed = store

	default:
		return fmt.Errorf("unknown catalog store backend %q", m.backend)
	}

	m.service = service.NewCatalogService(opts)
	m.logger.Info("catalog module initialized", "backend", m.backend, "unrated_policy", policy)
	return nil
}

// Service returns the catalog service; nil before Init
func (m *Module) Service() *service.CatalogService {
	return m.service
}

// RegisterRoutes registers HTTP routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	handler := api.NewHandler(m.service, m.registry, m.allowedOrigins, m.logger.Named("api"))
	api.RegisterRoutes(router, handler)
}

// HealthCheck reports whether the store answers
func (m *Module) HealthCheck(ctx context.Context) modulemanager.HealthStatus {
	status := modulemanager.HealthStatus{
		Status:      modulemanager.HealthStateHealthy,
		LastChecked: time.Now(),
		Details:     map[string]interface{}{"backend": m.backend},
	}

	var err error
	switch {
	case m.db != nil:
		err = database.Ping(m.db)
	case m.docs != nil:
		_, err = m.docs.GetItem(ctx, "healthcheck")
		if err != nil && catalogerrors.IsNotFound(err) {
			err = nil
		}
	}
	if err != nil {
		status.Status = modulemanager.HealthStateUnhealthy
		status.Message = err.Error()
	}
	return status
}

// Shutdown releases the Firestore client when one is open
func (m *Module) Shutdown(ctx context.Context) error {
	if m.docs != nil {
		if err := m.docs.Close(); err != nil {
			return fmt.Errorf("failed to close firestore client: %w", err)
		}
	}
	return nil
}
