package consumer

import (
	"context"
	"errors"
	"time"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const fetchRetryDelay = time.Second

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ConsumeEmployeeLifecycle opens leave balances for every newly created
// employee. Redelivered events hit ErrBalanceAlreadySeeded and are committed.
func ConsumeEmployeeLifecycle(
	ctx context.Context,
	reader MessageReader,
	balanceService balance.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.employee_lifecycle")
	log.Info("employee lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("employee lifecycle consumer stopped")
				return
			}
			log.Error("fetch employee lifecycle message failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(fetchRetryDelay):
			}
			continue
		}

		if handleEmployeeCreated(ctx, msg, balanceService, log) {
			if err := reader.CommitMessages(ctx, msg); err != nil {
				log.Error("commit employee lifecycle message failed", zap.Error(err))
			}
		}
	}
}

// handleEmployeeCreated reports whether the message is done with and may be
// committed. Transient failures return false so the offset stays put.
func handleEmployeeCreated(
	ctx context.Context,
	msg kafkago.Message,
	balanceService balance.Service,
	log *zap.Logger,
) bool {
	event, ok, err := events.ParseEmployeeCreated(msg.Value)
	if err != nil {
		log.Error("drop undecodable employee lifecycle message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return true
	}
	if !ok {
		log.Debug("ignoring employee lifecycle event", zap.String("event_type", event.EventType))
		return true
	}

	_, err = balanceService.Seed(ctx, balance.SeedBalanceRequest{
		EmployeeID: event.EmployeeID,
		FullName:   event.FullName,
	})
	switch {
	case err == nil:
		log.Info("leave balance seeded from employee_created event",
			zap.String("employee_id", event.EmployeeID),
			zap.String("request_id", event.RequestID),
		)
		return true
	case errors.Is(err, balanceerrors.ErrBalanceAlreadySeeded):
		log.Warn("leave balance already seeded for event, skipping",
			zap.String("employee_id", event.EmployeeID),
		)
		return true
	case errors.Is(err, balanceerrors.ErrInvalidEmployeeID):
		log.Error("employee_created event carries invalid employee id",
			zap.String("employee_id", event.EmployeeID),
		)
		return true
	default:
		log.Error("seed leave balance failed",
			zap.String("employee_id", event.EmployeeID),
			zap.Error(err),
		)
		return false
	}
}
