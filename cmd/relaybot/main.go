// Command relaybot runs the anonymous group relay: it forwards private
// messages into a staff group and routes the group's replies and reactions
// back to the originating user.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mkoval/go-anon-relay/internal/config"
	"github.com/mkoval/go-anon-relay/internal/domain"
	"github.com/mkoval/go-anon-relay/internal/httpapi"
	"github.com/mkoval/go-anon-relay/internal/observability"
	"github.com/mkoval/go-anon-relay/internal/ratelimit"
	"github.com/mkoval/go-anon-relay/internal/relay"
	"github.com/mkoval/go-anon-relay/internal/repo"
	"github.com/mkoval/go-anon-relay/internal/sysutil"
	"github.com/mkoval/go-anon-relay/internal/telegram"
)

const version = "1.0.0"

// forwardStore adapts the repository free functions to the relay.Store
// interface. Keeps the dispatcher decoupled from the concrete repo package.
type forwardStore struct{ db *gorm.DB }

func (s forwardStore) Record(ctx context.Context, groupMessageID, userID, userMessageID int64) error {
	return repo.CreateForward(ctx, s.db, groupMessageID, userID, userMessageID)
}

func (s forwardStore) Lookup(ctx context.Context, groupMessageID int64) (*domain.Forward, error) {
	return repo.GetForward(ctx, s.db, groupMessageID)
}

// banRegistry adapts the ban repository functions to relay.BanList.
type banRegistry struct{ db *gorm.DB }

func (b banRegistry) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return repo.IsBanned(ctx, b.db, userID)
}

func (b banRegistry) Ban(ctx context.Context, userID int64) error {
	return repo.BanUser(ctx, b.db, userID)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		sysutil.UsePrettyLogging()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// Storage. Schema creation failure is the one fatal storage error.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("db tracing setup failed")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	client := telegram.NewClient(cfg.BotToken)
	dispatcher := relay.NewDispatcher(
		cfg.GroupID,
		forwardStore{db: db},
		banRegistry{db: db},
		ratelimit.New(),
		client,
	)

	log.Info().
		Str("transport", cfg.Transport).
		Int64("group_id", cfg.GroupID).
		Msg("starting relay")

	switch cfg.Transport {
	case config.TransportWebhook:
		runWebhook(ctx, cfg, client, dispatcher)
	case config.TransportPoll:
		runPoller(ctx, cfg, client, dispatcher)
	}
}

// runWebhook registers the webhook with the platform and serves it until
// the process is signalled.
func runWebhook(ctx context.Context, cfg config.Config, client *telegram.Client, d *relay.Dispatcher) {
	if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
		log.Fatal().Err(err).Msg("setWebhook failed")
	}

	serviceName := ""
	if cfg.OTEL.Enabled {
		serviceName = cfg.OTEL.ServiceName
	}
	router := httpapi.NewRouter(httpapi.Options{
		Secret:      cfg.WebhookSecret,
		Dispatcher:  d,
		ServiceName: serviceName,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("webhook server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("relay stopped")
}

// runPoller deletes any stale webhook and long-polls until the process is
// signalled.
func runPoller(ctx context.Context, cfg config.Config, client *telegram.Client, d *relay.Dispatcher) {
	// getUpdates conflicts with an active webhook registration.
	if err := client.DeleteWebhook(ctx); err != nil {
		log.Warn().Err(err).Msg("deleteWebhook failed")
	}

	p := &telegram.Poller{
		Client:   client,
		Dispatch: d.Dispatch,
		Log:      log.Logger,
	}
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("poller failed")
	}
	log.Info().Msg("relay stopped")
}
