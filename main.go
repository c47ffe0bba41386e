package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"moderation-console/internal/auth"
	"moderation-console/internal/config"
	"moderation-console/internal/console"
	"moderation-console/internal/locales"
	"moderation-console/internal/logging"
	"moderation-console/internal/metrics"
	"moderation-console/internal/repository"
	"moderation-console/internal/store"
)

const appName = "moderation-console"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration error")
	}
	logging.Setup(cfg.LogFormat, cfg.Debug, appName)

	// Initialize localization bundle
	if err := locales.Init(cfg.DefaultLanguage); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize locales")
	}

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sentry.Init failed")
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsManager := metrics.NewManager()

	backends, health, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to open stores")
	}
	defer closeStores()

	router, err := store.NewRouter(backends)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to build store router")
	}
	adapter := metrics.InstrumentAdapter(router, metricsManager)

	// Bot initialization
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to create telego bot")
	}

	adminChecker, err := auth.NewAdminChecker(bot, cfg.AdminChannelID)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to create admin checker")
	}
	hub := auth.NewSessionHub()

	updates, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to start long polling")
	}

	appConsole, err := console.New(console.Deps{
		Bot:           bot,
		Updates:       updates,
		Projects:      repository.NewProjectRepository(adapter),
		Registrations: repository.NewRegistrationRepository(adapter),
		Questions:     repository.NewQuestionRepository(adapter),
		Hub:           hub,
		Sessions:      auth.NewAuthenticator(hub, adminChecker),
		Metrics:       metricsManager,
		RateLimit:     cfg.RateLimit,
		Debug:         cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to create console")
	}
	if err := appConsole.RegisterCommands(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to register bot commands")
	}

	metricsManager.StartHostMetrics(ctx, 15*time.Second)
	server := metrics.NewServer(cfg.MetricsAddr, metricsManager, health)
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
			sentry.CaptureException(err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		appConsole.Start(ctx)
	}()

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()
	log.Info().Msg("Shutting down console...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	<-done
	log.Info().Msg("Console shutdown complete.")
}

// openStores connects the configured backend and maps every collection onto it.
// The returned health check and close function belong to the opened connections.
func openStores(ctx context.Context, cfg *config.Config) (map[store.CollectionRef]store.Adapter, metrics.HealthFunc, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		tree, err := store.NewMemoryTree()
		if err != nil {
			return nil, nil, nil, err
		}
		adapter := store.NewTreeAdapter(tree)
		log.Warn().Msg("Using in-memory store; data is lost on exit")
		return map[store.CollectionRef]store.Adapter{
			store.ProjectsCollection:      adapter,
			store.RegistrationsCollection: adapter,
			store.QuestionsCollection:     adapter,
		}, func() error { return nil }, func() {}, nil
	}

	client, db, err := store.ConnectMongo(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	cluster, bucket, err := store.ConnectCouchbase(cfg)
	if err != nil {
		disconnectMongo(client)
		return nil, nil, nil, err
	}

	tree := store.NewTreeAdapter(store.NewCouchbaseTree(cluster, bucket))
	backends := map[store.CollectionRef]store.Adapter{
		store.ProjectsCollection:      store.NewMongoAdapter(db),
		store.RegistrationsCollection: tree,
		store.QuestionsCollection:     tree,
	}
	health := func() error {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	}
	closeFn := func() {
		if err := cluster.Close(nil); err != nil {
			log.Error().Err(err).Msg("Error closing Couchbase cluster")
		}
		disconnectMongo(client)
	}
	return backends, health, closeFn, nil
}

func disconnectMongo(client *mongo.Client) {
	if err := client.Disconnect(context.Background()); err != nil {
		log.Error().Err(err).Msg("Error disconnecting from MongoDB")
		sentry.CaptureException(err)
		return
	}
	log.Info().Msg("Disconnected from MongoDB.")
}
