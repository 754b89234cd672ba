package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-product-card/internal/api"
	"github.com/example/ec-product-card/internal/auth"
	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/config"
	"github.com/example/ec-product-card/internal/infrastructure/kafka"
	"github.com/example/ec-product-card/internal/infrastructure/store"
	"github.com/example/ec-product-card/internal/logging"
	"github.com/example/ec-product-card/internal/session"
	"go.uber.org/zap"
)

const (
	sessionTTL = 30 * 24 * time.Hour
	// sweepInterval bounds how long an idle page outlives SESSION_IDLE_TIMEOUT
	sweepInterval = time.Minute
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("service", "storefront"))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	product, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		zap.String("brand", product.Brand),
		zap.String("name", product.Name),
		zap.Int("variants", len(product.Variants)))

	// Optional Kafka mirror of the journal
	var publisher store.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("mirroring journal to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}

	// Journal: PostgreSQL when configured, otherwise process memory
	var journal store.EventStoreInterface
	if cfg.DatabaseURL != "" {
		db, err := store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pg := store.NewPostgresEventStore(db, publisher)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		journal = pg
		logger.Info("journal: postgres")
	} else {
		journal = store.NewEventStore(publisher)
		logger.Info("journal: in-memory")
	}

	if cfg.GeneratedSecret {
		logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}
	tokens := auth.NewTokenService(cfg.SessionSecret, sessionTTL)

	sessions := session.NewRegistry(
		session.PageFactory(product, cfg.Premium, journal, logger),
		session.Options{IdleTimeout: cfg.SessionIdleTimeout, MaxSessions: cfg.MaxSessions},
		logger,
	)
	defer sessions.Close()
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, min(sweepInterval, cfg.SessionIdleTimeout))
	logger.Info("session limits",
		zap.Duration("idle_timeout", cfg.SessionIdleTimeout),
		zap.Int("max_sessions", cfg.MaxSessions))

	router := api.NewRouter(api.RouterConfig{
		Handlers:  api.NewHandlers(sessions, logger),
		Tokens:    tokens,
		Logger:    logger,
		AssetsDir: cfg.AssetsDir,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.Bool("premium", cfg.Premium))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
