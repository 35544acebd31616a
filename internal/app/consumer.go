package app

import (
	"context"

	"go-leave/internal/balance"
	"go-leave/internal/config"
	"go-leave/internal/employee"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer seeds leave balances from employee_created events until SIGINT
// or SIGTERM.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return errNoBroker
	}

	gormDB, sqlDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := Migrate(gormDB); err != nil {
		return err
	}

	// The summary cache is optional here; without Redis it simply expires.
	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 1)
	if err != nil {
		logger.Warn("redis unavailable, balance summary cache will not be invalidated", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	balanceService := balance.NewService(
		sqlDB,
		balance.NewRepository(gormDB),
		employee.NewRepository(gormDB),
		cfg.Leave.Policy().Allotments,
		rdb,
	)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.EmployeeCreatedTopic,
		GroupID:        cfg.Worker.ConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	runBackground(cfg, "BALANCE_SEEDER", func(ctx context.Context) {
		consumer.ConsumeEmployeeLifecycle(ctx, reader, balanceService, logger)
	})
	return nil
}
