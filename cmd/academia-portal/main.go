package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/config"
	_ "github.com/songzhibin97/academia/internal/log/driver/stdout"
	"github.com/songzhibin97/academia/internal/portal"
	"github.com/songzhibin97/academia/internal/portal/repository"
	"github.com/songzhibin97/academia/internal/tracing"
	"github.com/songzhibin97/academia/pkg/log"
)

var (
	configFile = flag.String("config", "configs/academia.yaml", "Configuration file path")
	version    = flag.Bool("version", false, "Show version information")
)

const (
	// Version information
	Version   = "v1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()
	start := time.Now()

	if *version {
		fmt.Printf("Academia Portal %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.MustInitializeLogging(&cfg.Logging)
	defer log.Shutdown()
	logger := log.Component("main")
	environment := "production"
	if cfg.Logging.Development {
		environment = "development"
	}
	logger.Info("Starting academia portal",
		append(log.StartupFields("academia-portal", Version, environment),
			log.String(log.FieldDatabase, cfg.Portal.Repository.Type))...)

	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := tracing.NewTracerProvider(cfg.Tracing, Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", log.Error(err))
	}

	repo, err := repository.Open(cfg.Portal.Repository)
	if err != nil {
		logger.Fatal("Failed to open repository",
			log.String(log.FieldDatabase, cfg.Portal.Repository.Type), log.Error(err))
	}

	server, err := portal.NewServer(cfg, repo)
	if err != nil {
		repo.Close()
		logger.Fatal("Failed to create portal server", log.Error(err))
	}

	if err := server.Start(); err != nil {
		repo.Close()
		logger.Fatal("Failed to start portal server", log.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var reason string
	select {
	case sig := <-quit:
		reason = sig.String()
	case err := <-server.Errors():
		logger.Error("Portal server failed", log.Error(err))
		reason = "server error"
	}

	logger.Info("Shutting down academia portal", log.ShutdownFields(reason, time.Since(start))...)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Portal.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Server forced to shutdown", log.Error(err))
	}
	if err := repo.Close(); err != nil {
		logger.Error("Failed to close repository", log.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down tracing", log.Error(err))
	}

	logger.Info("Academia portal stopped")
}
