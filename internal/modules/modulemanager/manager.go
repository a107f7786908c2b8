package modulemanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
)

// ModuleRegistry manages module registration and initialization. Modules
// are initialized in registration order and shut down in reverse.
type ModuleRegistry struct {
	mu              sync.RWMutex
	order           []Module
	modules         map[string]Module
	disabledModules map[string]bool
	initialized     bool
	logger          hclog.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger hclog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		modules:         make(map[string]Module),
		disabledModules: make(map[string]bool),
		logger:          logger.Named("modules"),
	}
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return fmt.Errorf("module %s registered after initialization", m.ID())
	}
	if _, exists := r.modules[m.ID()]; exists {
		return fmt.Errorf("module %s already registered", m.ID())
	}

	r.modules[m.ID()] = m
	r.order = append(r.order, m)
	r.logger.Info("module registered", "id", m.ID(), "name", m.Name())
	return nil
}

// DisableModule marks a non-core module as disabled
func (r *ModuleRegistry) DisableModule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, exists := r.modules[id]
	if !exists {
		return fmt.Errorf("module not found: %s", id)
	}
	if module.Core() {
		return fmt.Errorf("cannot disable core module: %s", id)
	}

	r.disabledModules[id] = true
	return nil
}

// LoadAll migrates and initializes every enabled module
func (r *ModuleRegistry) LoadAll(mctx *Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}

	enabled := r.enabledLocked()
	r.logger.Info("loading modules", "count", len(enabled))

	for i, module := range enabled {
		if mctx.DB != nil {
			if err := module.Migrate(mctx.DB); err != nil {
				return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
			}
		}

		if err := module.Init(mctx); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		r.logger.Info("module loaded", "step", fmt.Sprintf("%d/%d", i+1, len(enabled)), "id", module.ID())
	}

	r.initialized = true
	return nil
}

// RegisterRoutes lets every enabled module mount its HTTP routes
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, module := range r.enabledLocked() {
		if registrar, ok := module.(RouteRegistrar); ok {
			registrar.RegisterRoutes(router)
		}
	}
}

// Shutdown stops modules in reverse registration order
func (r *ModuleRegistry) Shutdown(ctx context.Context) error {
	r.mu.RLock()
	enabled := r.enabledLocked()
	r.mu.RUnlock()

	var errs []error
	for i := len(enabled) - 1; i >= 0; i-- {
		if s, ok := enabled[i].(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				r.logger.Error("module shutdown failed", "id", enabled[i].ID(), "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", enabled[i].ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Health collects the health of every module that reports it
func (r *ModuleRegistry) Health(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	enabled := r.enabledLocked()
	r.mu.RUnlock()

	out := make(map[string]HealthStatus, len(enabled))
	for _, module := range enabled {
		if hc, ok := module.(HealthChecker); ok {
			out[module.ID()] = hc.HealthCheck(ctx)
			continue
		}
		out[module.ID()] = HealthStatus{Status: HealthStateUnknown, LastChecked: time.Now()}
	}
	return out
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns all registered modules in registration order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Module(nil), r.order...)
}

func (r *ModuleRegistry) enabledLocked() []Module {
	enabled := make([]Module, 0, len(r.order))
	for _, module := range r.order {
		if r.disabledModules[module.ID()] {
			r.logger.Warn("skipping disabled module", "id", module.ID())
			continue
		}
		enabled = append(enabled, module)
	}
	return enabled
}
