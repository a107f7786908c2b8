package catalogmodule

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
	"github.com/mantonx/catalog/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *modulemanager.Context {
	cfg := config.DefaultConfig()
	cfg.Database.Path = ":memory:"
	cfg.Database.MaxOpenConns = 1
	cfg.Database.LogLevel = "silent"

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	bus := events.NewEventBus(events.DefaultEventBusConfig(), hclog.NewNullLogger())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	return &modulemanager.Context{
		Config:   cfg,
		DB:       db,
		Bus:      bus,
		Logger:   hclog.NewNullLogger(),
		Services: services.NewRegistry(),
	}
}

func TestModuleLifecycleSQL(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mctx := testContext(t)

	registry := modulemanager.NewRegistry(hclog.NewNullLogger())
	require.NoError(t, registry.Register(NewModule()))
	require.NoError(t, registry.LoadAll(mctx))

	router := gin.New()
	registry.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(`{"type":"videojuego","title":"Hades","platform":"PC"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	health := registry.Health(context.Background())
	require.Contains(t, health, ModuleID)
	assert.Equal(t, modulemanager.HealthStateHealthy, health[ModuleID].Status)
	assert.Equal(t, "sql", health[ModuleID].Details["backend"])

	require.NoError(t, registry.Shutdown(context.Background()))
}

func TestModuleRejectsUnknownBackend(t *testing.T) {
	mctx := testContext(t)
	mctx.Config.Store.Backend = "mongo"

	assert.Error(t, NewModule().Init(mctx))
}

func TestModuleRejectsBadPolicy(t *testing.T) {
	mctx := testContext(t)
	mctx.Config.Catalog.UnratedPolicy = "average"

	assert.Error(t, NewModule().Init(mctx))
}

func TestModuleFirestoreNeedsProject(t *testing.T) {
	mctx := testContext(t)
	mctx.Config.Store.Backend = "firestore"
	mctx.Config.Store.ProjectID = ""

	assert.Error(t, NewModule().Init(mctx))
}
