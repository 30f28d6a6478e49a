package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tabvault/tabvault/internal/config"
	handler "github.com/tabvault/tabvault/internal/handler/http"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/server"
	"github.com/tabvault/tabvault/internal/service"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const shutdownTimeout = 10 * time.Second

func main() {
	printBuildInfo()

	log := logger.NewLogger("tabvault-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if err = cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid server configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err = migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	repos := store.Repositories{
		Users:  store.NewUserRepository(db, log),
		Groups: store.NewGroupRepository(db, log),
	}

	hub := server.NewHub(log)
	services := service.NewServices(repos, hub, service.TokenSettings{
		Issuer:   cfg.App.TokenIssuer,
		SignKey:  cfg.App.TokenSignKey,
		Duration: cfg.App.TokenDuration,
	}, log)

	h := handler.NewHandler(services, hub, log)
	srv := server.NewHTTPServer(cfg.Server.HTTPAddress, h.Init(), log)

	go func() {
		if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("address", cfg.Server.HTTPAddress).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Shutdown()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
