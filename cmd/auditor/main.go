package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-product-card/internal/audit"
	"github.com/example/ec-product-card/internal/config"
	"github.com/example/ec-product-card/internal/infrastructure/kafka"
	"github.com/example/ec-product-card/internal/logging"
	"go.uber.org/zap"
)

// Dedicated consumer group so the auditor sees every event
const consumerGroup = "product-card-auditor"

const summaryInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("service", "auditor"))

	if len(cfg.KafkaBrokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditor := audit.NewAuditor(logger)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup, logger)
	defer consumer.Close()

	go func() {
		ticker := time.NewTicker(summaryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := auditor.Summary()
				logger.Info("summary",
					zap.Int("events", s.Events),
					zap.Int("skipped", s.Skipped),
					zap.Any("in_carts", s.InCarts),
					zap.Int("reviews", s.Reviews),
					zap.String("average_rating", s.AverageRating),
					zap.Int("recommended", s.Recommended))
			}
		}
	}()

	logger.Info("starting event consumer",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", consumerGroup))

	if err := consumer.Consume(ctx, auditor.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer error", zap.Error(err))
	}
	logger.Info("shutting down")
}
