package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
)

// healthTimeout bounds a module health sweep
const healthTimeout = 5 * time.Second

// setupRoutes mounts the system routes and every module's routes
func setupRoutes(r *gin.Engine, opts Options) {
	api := r.Group("/api")
	{
		setupHealthRoutes(api, opts)
		api.GET("", listRoutes(r))
	}

	if opts.Modules != nil {
		opts.Modules.RegisterRoutes(r)
	}
}

func setupHealthRoutes(api *gin.RouterGroup, opts Options) {
	collector := NewMetricsCollector(opts.Config.Database.DataDir, opts.Logger.Named("metrics"))

	api.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		status := modulemanager.HealthStateHealthy
		modules := map[string]modulemanager.HealthStatus{}
		if opts.Modules != nil {
			modules = opts.Modules.Health(ctx)
		}
		for _, h := range modules {
			status = worse(status, h.Status)
		}

		body := gin.H{
			"status":  status,
			"modules": modules,
		}

		if opts.Bus != nil {
			if err := opts.Bus.Health(); err != nil {
				status = worse(status, modulemanager.HealthStateUnhealthy)
				body["status"] = status
				body["events"] = gin.H{"status": modulemanager.HealthStateUnhealthy, "message": err.Error()}
			} else {
				body["events"] = opts.Bus.GetStats()
			}
		}

		if opts.Services != nil {
			body["services"] = opts.Services.Names()
		}

		code := http.StatusOK
		if status == modulemanager.HealthStateUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, body)
	})

	api.GET("/health/system", func(c *gin.Context) {
		c.JSON(http.StatusOK, collector.Collect(c.Request.Context()))
	})
}

// worse returns the more severe of two health states
func worse(a, b modulemanager.HealthState) modulemanager.HealthState {
	rank := map[modulemanager.HealthState]int{
		modulemanager.HealthStateHealthy:   0,
		modulemanager.HealthStateUnknown:   1,
		modulemanager.HealthStateDegraded:  2,
		modulemanager.HealthStateUnhealthy: 3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// listRoutes serves the mounted routes for discovery
func listRoutes(r *gin.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		type route struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}
		routes := make([]route, 0)
		for _, ri := range r.Routes() {
			routes = append(routes, route{Method: ri.Method, Path: ri.Path})
		}
		sort.Slice(routes, func(i, j int) bool {
			if routes[i].Path == routes[j].Path {
				return routes[i].Method < routes[j].Method
			}
			return routes[i].Path < routes[j].Path
		})
		c.JSON(http.StatusOK, gin.H{"routes": routes})
	}
}
