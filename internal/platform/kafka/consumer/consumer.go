package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"minesykmeldte/internal/platform/metrics"
)

// Config captures what one consumer loop needs to subscribe.
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string

	// Backoff is the fixed delay before resubscribing after a failed batch.
	// Zero means the 10 second default.
	Backoff time.Duration
}

// Consumer runs one single-threaded poll loop over a set of topics. Records
// in a batch are processed strictly in delivery order and offsets are
// committed only after the whole batch has been applied, giving
// at-least-once delivery. A handler error abandons the batch: the consumer
// leaves the group, waits the fixed backoff, and resubscribes, so the
// uncommitted records are redelivered.
type Consumer struct {
	cfg      Config
	handler  Handler
	logger   *slog.Logger
	metrics  *metrics.Metrics
	backoff  time.Duration
	progress *progress
}

func New(cfg Config, handler Handler, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = 10 * time.Second
	}
	return &Consumer{
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		metrics:  m,
		backoff:  backoff,
		progress: newProgress(10_000, time.Minute),
	}
}

// Run blocks until ctx is cancelled. Shutdown happens between batches; an
// in-flight batch always runs to completion or fails as a unit.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		client, err := c.connect()
		if err != nil {
			c.logger.Error("kafka connect failed",
				"group", c.cfg.GroupID,
				"error", err,
			)
		} else {
			err = c.consume(ctx, client)
			client.Close()
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Error("consumer loop failed, resubscribing after backoff",
			"group", c.cfg.GroupID,
			"topics", c.cfg.Topics,
			"backoff", c.backoff.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff):
		}
	}
}

func (c *Consumer) connect() (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(c.cfg.Brokers...),
		kgo.ConsumerGroup(c.cfg.GroupID),
		kgo.ConsumeTopics(c.cfg.Topics...),
		kgo.DisableAutoCommit(),
		kgo.FetchMaxWait(5*time.Second),
	)
}

func (c *Consumer) consume(ctx context.Context, client *kgo.Client) error {
	for {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return fmt.Errorf("fetch %s: %w", errs[0].Topic, errs[0].Err)
		}

		var batchErr error
		fetches.EachRecord(func(rec *kgo.Record) {
			if batchErr != nil {
				return
			}
			msg := &Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
				Timestamp: rec.Timestamp,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.metrics.KafkaMessagesFailed.WithLabelValues(rec.Topic).Inc()
				batchErr = fmt.Errorf("handle %s [%d] offset %d: %w", rec.Topic, rec.Partition, rec.Offset, err)
				return
			}
			c.metrics.KafkaMessagesProcessed.WithLabelValues(rec.Topic).Inc()
			c.progress.observe(c.logger, rec.Topic)
		})
		if batchErr != nil {
			return batchErr
		}

		if err := client.CommitUncommittedOffsets(ctx); err != nil {
			return fmt.Errorf("commit offsets: %w", err)
		}
	}
}
