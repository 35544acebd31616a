package producer

import (
	"context"
	"time"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/metrics"

	"go.uber.org/zap"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 3 * time.Second
)

type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	Metrics      *metrics.Metrics
}

// Relay moves leave lifecycle events from outbox_events to Kafka. Only one
// relay should run per database; rows are not locked while in flight.
type Relay struct {
	repo   kafka.OutboxRepository
	writer MessageWriter
	log    *zap.Logger
	opts   RelayOptions
}

func NewRelay(repo kafka.OutboxRepository, writer MessageWriter, logger *zap.Logger, opts RelayOptions) *Relay {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		repo:   repo,
		writer: writer,
		log:    logger.Named("kafka.producer.relay"),
		opts:   opts,
	}
}

// Run polls until ctx is cancelled. A batch that came back full is followed
// immediately by the next one instead of waiting for the ticker.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	r.log.Info("outbox relay started",
		zap.Duration("poll_interval", r.opts.PollInterval),
		zap.Int("batch_size", r.opts.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := r.relayBatch(ctx)
		if err != nil {
			r.log.Error("relay outbox batch failed", zap.Error(err))
			return
		}
		r.opts.Metrics.Sent(res.sent)
		r.opts.Metrics.RelayFailed(res.failed)

		if res.sent < r.opts.BatchSize {
			return
		}
	}
}

type batchResult struct {
	sent   int
	failed int
}

func (r *Relay) relayBatch(ctx context.Context) (batchResult, error) {
	var res batchResult

	events, err := r.repo.ListPending(ctx, r.opts.BatchSize)
	if err != nil || len(events) == 0 {
		return res, err
	}
	r.log.Debug("relaying outbox events", zap.Int("count", len(events)))

	for _, event := range events {
		fields := []zap.Field{
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
		}

		if err := publishEvent(ctx, r.writer, event); err != nil {
			res.failed++
			r.log.Warn("publish outbox event failed",
				append(fields, zap.Int("attempt", event.RetryCount+1), zap.Error(err))...)
			if event.RetryCount+1 >= kafka.MaxOutboxAttempts {
				r.log.Error("outbox event parked as dead", fields...)
			}
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				r.log.Error("record outbox failure", append(fields, zap.Error(markErr))...)
			}
			continue
		}

		// the event is already on the topic; a failed MarkSent means it will
		// be sent again and consumers must tolerate the duplicate
		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			r.log.Error("mark outbox sent", append(fields, zap.Error(err))...)
			continue
		}
		res.sent++
	}

	return res, nil
}
