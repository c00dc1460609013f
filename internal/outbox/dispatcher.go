package outbox

import (
	"context"
	"log/slog"
	"time"

	outboxDatamodel "github.com/staybook/payment-service/internal/core/datamodel/outbox"
	"github.com/staybook/payment-service/internal/kafka"
	"github.com/staybook/payment-service/internal/lease"
)

const (
	leaseDispatch = "outbox-dispatch"
	leaseRetry    = "outbox-retry"
)

type DispatcherConfig struct {
	DispatchInterval time.Duration
	RetryInterval    time.Duration
	BatchSize        int
	MaxRetryCount    int
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		DispatchInterval: 5 * time.Second,
		RetryInterval:    30 * time.Second,
		BatchSize:        100,
		MaxRetryCount:    5,
	}
}

// Dispatcher drains the outbox table to the broker. Two loops share one
// goroutine: a fast one for fresh PENDING events and a slow one that
// resurrects FAILED events under the retry ceiling. Each loop runs under a
// named lease so only one replica drains at a time.
type Dispatcher struct {
	repo     RepositoryAPI
	producer kafka.Producer
	locker   lease.Locker
	cfg      DispatcherConfig
	logger   *slog.Logger
}

func NewDispatcher(repo RepositoryAPI, producer kafka.Producer, locker lease.Locker, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg = DefaultDispatcherConfig()
	}
	return &Dispatcher{
		repo:     repo,
		producer: producer,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	dispatch := time.NewTicker(d.cfg.DispatchInterval)
	retry := time.NewTicker(d.cfg.RetryInterval)
	defer dispatch.Stop()
	defer retry.Stop()

	d.logger.Info("outbox dispatcher started",
		"dispatch_interval", d.cfg.DispatchInterval,
		"retry_interval", d.cfg.RetryInterval,
		"batch_size", d.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("outbox dispatcher stopping")
			return
		case <-dispatch.C:
			d.DispatchPending(ctx)
		case <-retry.C:
			d.RetryFailed(ctx)
		}
	}
}

// DispatchPending publishes one batch of PENDING events in creation order.
func (d *Dispatcher) DispatchPending(ctx context.Context) {
	l, ok := d.locker.Acquire(leaseDispatch, 4*time.Second, time.Second)
	if !ok {
		return
	}
	defer d.locker.Release(l)

	events, err := d.repo.FindPending(d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("failed to load pending events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	d.logger.Info("dispatching outbox events", "count", len(events))
	for _, event := range events {
		d.publish(ctx, event)
	}
}

// RetryFailed flips retryable FAILED events back to PENDING and republishes
// them. Events at the retry ceiling stay FAILED for manual inspection.
func (d *Dispatcher) RetryFailed(ctx context.Context) {
	l, ok := d.locker.Acquire(leaseRetry, 29*time.Second, 5*time.Second)
	if !ok {
		return
	}
	defer d.locker.Release(l)

	events, err := d.repo.FindRetryable(d.cfg.MaxRetryCount, d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("failed to load retryable events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	d.logger.Info("retrying failed outbox events", "count", len(events))
	for _, event := range events {
		if err := event.ResetForRetry(); err != nil {
			d.logger.Error("failed to reset event for retry", "event_id", event.ID, "error", err)
			continue
		}
		if err := d.repo.Update(event); err != nil {
			d.logger.Error("failed to persist retry reset", "event_id", event.ID, "error", err)
			continue
		}
		d.publish(ctx, event)
	}
}

// publish hands one event to the broker. The status flip happens in the
// producer's completion callback, away from the dispatch loop, so one slow
// acknowledgement never stalls the rest of the batch.
func (d *Dispatcher) publish(ctx context.Context, event *outboxDatamodel.Event) {
	topic, err := event.Topic()
	if err != nil {
		d.fail(event, err.Error())
		return
	}

	d.producer.PublishAsync(ctx, topic, event.AggregateID, []byte(event.Payload), func(pubErr error) {
		if pubErr != nil {
			d.fail(event, pubErr.Error())
			return
		}
		if err := event.MarkPublished(); err != nil {
			d.logger.Error("failed to mark event published", "event_id", event.ID, "error", err)
			return
		}
		if err := d.repo.Update(event); err != nil {
			d.logger.Error("failed to persist published status", "event_id", event.ID, "error", err)
		}
	})
}

func (d *Dispatcher) fail(event *outboxDatamodel.Event, reason string) {
	d.logger.Error("failed to publish outbox event",
		"event_id", event.ID,
		"event_type", event.EventType,
		"retry_count", event.RetryCount,
		"error", reason)

	if err := event.MarkFailed(reason); err != nil {
		d.logger.Error("failed to mark event failed", "event_id", event.ID, "error", err)
		return
	}
	if err := d.repo.Update(event); err != nil {
		d.logger.Error("failed to persist failed status", "event_id", event.ID, "error", err)
	}
}
