package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"
)

// Handler processes one record. Returning an error wrapped with
// backoff.Permanent (or any error Classify marks as fatal) skips the record;
// other errors are retried in place until the handler succeeds or ctx ends.
type Handler interface {
	Handle(ctx context.Context, rec *kgo.Record) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, rec *kgo.Record) error

func (f HandlerFunc) Handle(ctx context.Context, rec *kgo.Record) error { return f(ctx, rec) }

// Consumer polls a group and hands each partition's records to a Handler,
// partitions in parallel and records within a partition in order. Offsets are
// committed only after a record has been handled or rejected as fatal.
type Consumer struct {
	client     *kgo.Client
	handler    Handler
	logger     *slog.Logger
	isFatal    func(error) bool
	maxBackoff time.Duration
}

type ConsumerOption func(*Consumer)

// WithFatalClassifier decides which handler errors must not be retried.
func WithFatalClassifier(fn func(error) bool) ConsumerOption {
	return func(c *Consumer) {
		c.isFatal = fn
	}
}

func WithMaxBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.maxBackoff = d
	}
}

func NewConsumer(client *kgo.Client, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:     client,
		handler:    handler,
		logger:     logger,
		isFatal:    func(error) bool { return false },
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			c.client.AllowRebalance()
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		g, gctx := errgroup.WithContext(ctx)
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			records := p.Records
			if len(records) == 0 {
				return
			}
			g.Go(func() error {
				return c.handlePartition(gctx, records)
			})
		})
		err := g.Wait()
		c.client.AllowRebalance()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.ErrorContext(ctx, "kafka partition handling stopped", "error", err)
			return err
		}
	}
}

func (c *Consumer) handlePartition(ctx context.Context, records []*kgo.Record) error {
	for _, rec := range records {
		if err := c.handleWithRetry(ctx, rec); err != nil {
			return err
		}
		if err := c.client.CommitRecords(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consumer) handleWithRetry(ctx context.Context, rec *kgo.Record) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = c.maxBackoff
	policy.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		err := c.handler.Handle(ctx, rec)
		if err == nil {
			return nil
		}
		if c.isFatal(err) {
			return backoff.Permanent(err)
		}
		c.logger.WarnContext(ctx, "command handling failed, retrying",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(policy, ctx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// Permanent: reject the record and move on.
	c.logger.ErrorContext(ctx, "command rejected",
		"topic", rec.Topic,
		"partition", rec.Partition,
		"offset", rec.Offset,
		"error", err,
	)
	return nil
}
