package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var errNoBroker = errors.New("KAFKA_BROKER is required")

// RunWorker relays leave lifecycle events from the outbox to Kafka until
// SIGINT or SIGTERM.
func RunWorker(cfg *config.Config) error {
	if cfg.KafkaBroker == "" {
		return errNoBroker
	}

	_, sqlDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, connectRetries)
	if err != nil {
		return err
	}
	defer writer.Close()

	relay := producer.NewRelay(
		kafka.NewOutboxRepository(sqlDB),
		writer,
		zap.L(),
		producer.RelayOptions{
			PollInterval: cfg.Worker.PollInterval,
			BatchSize:    cfg.Worker.BatchSize,
			Metrics:      metrics.New(prometheus.DefaultRegisterer),
		},
	)

	runBackground(cfg, "OUTBOX_RELAY", relay.Run)
	return nil
}

// runBackground runs loop until a termination signal, serving /metrics on
// the side and recording start and stop in the audit log.
func runBackground(cfg *config.Config, action string, loop func(context.Context)) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audit := bootstrap.NewStdoutAuditLogger()
	meta := map[string]any{"broker": cfg.KafkaBroker}

	bootstrap.ServeMetrics(ctx, cfg.Worker.MetricsAddr)

	audit.Log(ctx, bootstrap.AuditLog{Action: action + "_START", Message: "background loop started", Meta: meta})
	loop(ctx)
	audit.Log(context.Background(), bootstrap.AuditLog{Action: action + "_STOP", Message: "background loop stopped", Meta: meta})
}
