package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tabvault/tabvault/internal/adapter"
	"github.com/tabvault/tabvault/internal/config"
	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/store"
	"github.com/tabvault/tabvault/internal/syncer"
	"github.com/tabvault/tabvault/internal/utils"
	"github.com/tabvault/tabvault/internal/workers"
	"github.com/tabvault/tabvault/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("tabvault-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local, err := store.NewLocalStore(cfg.Storage.Local.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("error opening local store")
	}
	defer local.Close()

	filter, err := syncer.NewDeviceFilter(ctx, local, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error resolving device identity")
	}

	remote := adapter.NewHTTPRemoteStore(adapter.HTTPClientConfig{
		BaseURL:  cfg.Adapter.ServerURL,
		DeviceID: filter.DeviceID(),
		Timeout:  cfg.Adapter.RequestTimeout,
	})

	if err = authenticate(ctx, remote, log); err != nil {
		log.Fatal().Err(err).Msg("error authenticating")
	}

	coord := syncer.NewCoordinator(0, log)
	deb := syncer.NewDebouncer(ctx, cfg.Sync.DebounceDelay, log)
	defer deb.CancelAll()

	svc := syncer.NewService(local, remote, coord, filter, syncer.SyncOptions{
		ConflictWindow: cfg.Sync.ConflictWindow,
	}, log)

	if res := svc.FullSync(ctx); res.Err != nil {
		log.Warn().Err(res.Err).Msg("initial sync failed; realtime and the periodic job will retry")
	}

	feed := adapter.NewWebsocketFeedClient(adapter.FeedClientConfig{
		BaseURL:     cfg.Adapter.ServerURL,
		DeviceID:    filter.DeviceID(),
		TokenSource: remote.Token,
	})

	realtime := syncer.NewRealtimeSync(feed, svc, coord, filter, deb, sessionValid(remote), syncer.RealtimeConfig{
		PollInterval: cfg.Sync.PollInterval,
	}, log)

	background := workers.NewWorkers(workers.NewSyncJob(svc, cfg.Sync.Interval, log))
	background.Start(ctx)
	defer background.Stop()

	realtime.Start(ctx)
	defer realtime.Stop()

	log.Info().Str("server", cfg.Adapter.ServerURL).Msg("client started")

	<-ctx.Done()
	log.Info().Msg("shutting down")
}

// authenticate logs in with the TABVAULT_LOGIN / TABVAULT_PASSWORD
// credentials, registering the account first if it does not exist yet.
func authenticate(ctx context.Context, remote adapter.RemoteStore, log *logger.Logger) error {
	user := models.User{
		Login:    os.Getenv("TABVAULT_LOGIN"),
		Password: os.Getenv("TABVAULT_PASSWORD"),
	}
	if user.Login == "" || user.Password == "" {
		return errors.New("TABVAULT_LOGIN and TABVAULT_PASSWORD must be set")
	}

	if _, err := remote.Login(ctx, user); err != nil {
		if !errors.Is(err, adapter.ErrUnauthorized) {
			return fmt.Errorf("login: %w", err)
		}

		log.Info().Str("login", user.Login).Msg("account not found, registering")
		if _, err = remote.Register(ctx, user); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	}

	return nil
}

// sessionValid reports whether the stored bearer token is still usable.
// Used by the realtime heartbeat to drop dead sessions early.
func sessionValid(remote adapter.RemoteStore) func() bool {
	return func() bool {
		token := remote.Token()
		if token == "" {
			return false
		}

		expiry, err := utils.TokenExpiry(token)
		if err != nil {
			return false
		}

		return time.Now().Before(expiry)
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
