package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/catalog/internal/config"
	"github.com/mantonx/catalog/internal/database"
	"github.com/mantonx/catalog/internal/events"
	"github.com/mantonx/catalog/internal/logger"
	"github.com/mantonx/catalog/internal/modules/catalogmodule"
	"github.com/mantonx/catalog/internal/modules/metadatamodule"
	"github.com/mantonx/catalog/internal/modules/modulemanager"
	"github.com/mantonx/catalog/internal/server"
	"github.com/mantonx/catalog/internal/services"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CATALOG_CONFIG_PATH"), "path to a YAML or JSON config file")
	disable := flag.String("disable-module", "", "id of a non-core module to skip")
	flag.Parse()

	if *configPath == "" {
		if _, err := os.Stat("./catalog.yaml"); err == nil {
			*configPath = "./catalog.yaml"
		}
	}

	cm, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	cfg := cm.GetConfig()

	log := logger.Init(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if *configPath != "" {
		log.Info("configuration loaded", "path", *configPath)
	} else {
		log.Info("using default configuration")
	}
	if !log.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	busCfg := events.DefaultEventBusConfig()
	busCfg.BufferSize = cfg.Events.BufferSize
	bus := events.NewEventBus(busCfg, log.Named("events"))
	if err := bus.Start(ctx); err != nil {
		log.Error("failed to start event bus", "error", err)
		os.Exit(1)
	}

	cm.AddWatcher(func(oldConfig, newConfig *config.Config) {
		if oldConfig.Logging.Level != newConfig.Logging.Level {
			logger.SetLevel(newConfig.Logging.Level)
			log.Info("log level changed", "level", newConfig.Logging.Level)
		}
		if err := bus.Publish(context.Background(), events.NewEvent(events.EventConfigChanged, "config", "")); err != nil {
			log.Warn("failed to publish config change", "error", err)
		}
	})
	if *configPath != "" {
		watcher, err := config.NewWatcher(cm, *configPath, log)
		if err != nil {
			log.Warn("config hot reload disabled", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	registry := services.NewRegistry()
	modules := modulemanager.NewRegistry(log)
	for _, m := range []modulemanager.Module{catalogmodule.NewModule(), metadatamodule.NewModule()} {
		if err := modules.Register(m); err != nil {
			log.Error("failed to register module", "id", m.ID(), "error", err)
			os.Exit(1)
		}
	}
	if *disable != "" {
		if err := modules.DisableModule(*disable); err != nil {
			log.Warn("cannot disable module", "id", *disable, "error", err)
		}
	}

	if err := modules.LoadAll(&modulemanager.Context{
		Config:   cfg,
		DB:       db,
		Bus:      bus,
		Logger:   log,
		Services: registry,
	}); err != nil {
		log.Error("failed to load modules", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Options{
		Config:   cfg,
		Modules:  modules,
		Services: registry,
		Bus:      bus,
		Logger:   log,
	})

	if err := bus.Publish(ctx, events.NewEvent(events.EventSystemStarted, "system", "")); err != nil {
		log.Warn("failed to publish startup event", "error", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		log.Info("shutting down gracefully", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			log.Error("server stopped", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	if err := modules.Shutdown(shutdownCtx); err != nil {
		log.Error("module shutdown error", "error", err)
	}
	_ = bus.Publish(shutdownCtx, events.NewEvent(events.EventSystemStopped, "system", ""))
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus shutdown error", "error", err)
	}

	log.Info("shutdown complete")
	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}
}
