package modulemanager

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type MockModule struct {
	mock.Mock
	id   string
	core bool
}

func (m *MockModule) ID() string   { return m.id }
func (m *MockModule) Name() string { return "mock " + m.id }
func (m *MockModule) Core() bool   { return m.core }

func (m *MockModule) Migrate(db *gorm.DB) error {
	return m.Called(db).Error(0)
}

func (m *MockModule) Init(mctx *Context) error {
	return m.Called(mctx).Error(0)
}

func (m *MockModule) RegisterRoutes(router *gin.Engine) {
	m.Called(router)
}

func (m *MockModule) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestLoadAllMigratesAndInitsInOrder(t *testing.T) {
	registry := NewRegistry(hclog.NewNullLogger())
	mctx := &Context{DB: setupTestDB(t), Logger: hclog.NewNullLogger()}

	var order []string
	a := &MockModule{id: "a"}
	b := &MockModule{id: "b"}
	for _, m := range []*MockModule{a, b} {
		m := m
		m.On("Migrate", mctx.DB).Return(nil).Run(func(mock.Arguments) { order = append(order, m.id+":migrate") })
		m.On("Init", mctx).Return(nil).Run(func(mock.Arguments) { order = append(order, m.id+":init") })
		require.NoError(t, registry.Register(m))
	}

	require.NoError(t, registry.LoadAll(mctx))
	assert.Equal(t, []string{"a:migrate", "a:init", "b:migrate", "b:init"}, order)

	a.AssertExpectations(t)
	b.AssertExpectations(t)

	// second load is a no-op
	require.NoError(t, registry.LoadAll(mctx))
	a.AssertNumberOfCalls(t, "Init", 1)
}

func TestLoadAllStopsOnInitError(t *testing.T) {
	registry := NewRegistry(hclog.NewNullLogger())
	mctx := &Context{}

	bad := &MockModule{id: "bad"}
	bad.On("Init", mctx).Return(errors.New("no api key"))
	after := &MockModule{id: "after"}

	require.NoError(t, registry.Register(bad))
	require.NoError(t, registry.Register(after))

	err := registry.LoadAll(mctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no api key")
	after.AssertNotCalled(t, "Init", mock.Anything)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(hclog.NewNullLogger())
	require.NoError(t, registry.Register(&MockModule{id: "x"}))
	assert.Error(t, registry.Register(&MockModule{id: "x"}))
}

func TestDisabledModuleIsSkipped(t *testing.T) {
	registry := NewRegistry(hclog.NewNullLogger())
	mctx := &Context{}

	core := &MockModule{id: "core", core: true}
	core.On("Init", mctx).Return(nil)
	optional := &MockModule{id: "optional"}

	require.NoError(t, registry.Register(core))
	require.NoError(t, registry.Register(optional))

	assert.Error(t, registry.DisableModule("core"))
	require.NoError(t, registry.DisableModule("optional"))
	require.NoError(t, registry.LoadAll(mctx))

	optional.AssertNotCalled(t, "Init", mock.Anything)
}

func TestShutdownReverseOrder(t *testing.T) {
	registry := NewRegistry(hclog.NewNullLogger())

	var order []string
	for _, id := range []string{"first", "second"} {
		m := &MockModule{id: id}
		id := id
		m.On("Shutdown", mock.Anything).Return(nil).Run(func(mock.Arguments) { order = append(order, id) })
		require.NoError(t, registry.Register(m))
	}

	require.NoError(t, registry.Shutdown(context.Background()))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := NewRegistry(hclog.NewNullLogger())
	router := gin.New()

	m := &MockModule{id: "routes"}
	m.On("RegisterRoutes", router).Return()
	require.NoError(t, registry.Register(m))

	registry.RegisterRoutes(router)
	m.AssertExpectations(t)
}
