package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// UsernameSyncer applies a username change to dependent records.
type UsernameSyncer interface {
	SyncUsername(ctx context.Context, userID, username string) error
}

// Consumer applies UserUpdated records to a UsernameSyncer.
//
// A record that cannot be decoded is logged and skipped. A record whose sync
// fails is retried with backoff, and skipped after maxAttempts so one broken
// user does not block the partition.
type Consumer struct {
	cl          ConsumerClient
	sync        UsernameSyncer
	backoff     time.Duration
	maxAttempts int
}

// NewConsumer returns a Consumer reading from cl.
func NewConsumer(cl ConsumerClient, sync UsernameSyncer) *Consumer {
	return &Consumer{
		cl:          cl,
		sync:        sync,
		backoff:     time.Second,
		maxAttempts: 5,
	}
}

// Run polls until ctx is done or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	lg.Info("Consuming user updates")

	for {
		if ctx.Err() != nil {
			return nil
		}
		closed, err := c.consume(ctx)
		if closed {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			lg.Error("Consume user updates", zap.Error(err))
			if !c.wait(ctx) {
				return nil
			}
		}
	}
}

// Close leaves the group and closes the underlying client.
func (c *Consumer) Close() {
	c.cl.Close()
}

// consume handles one poll and commits its offsets.
func (c *Consumer) consume(ctx context.Context) (closed bool, err error) {
	fetches := c.cl.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return true, nil
	}

	lg := zctx.From(ctx)
	fetches.EachError(func(topic string, partition int32, err error) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		lg.Warn("Fetch failed",
			zap.String("topic", topic),
			zap.Int32("partition", partition),
			zap.Error(err),
		)
	})
	if fetches.Empty() {
		return false, nil
	}

	fetches.EachRecord(func(r *kgo.Record) {
		c.handleRecord(ctx, r)
	})
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
		return false, errors.Wrap(err, "commit offsets")
	}
	return false, nil
}

func (c *Consumer) handleRecord(ctx context.Context, r *kgo.Record) {
	lg := zctx.From(ctx).With(
		zap.String("topic", r.Topic),
		zap.Int32("partition", r.Partition),
		zap.Int64("offset", r.Offset),
	)

	ev, err := DecodeUserUpdated(r.Value)
	if err != nil {
		lg.Warn("Skip malformed user update", zap.Error(err))
		return
	}

	for attempt := 1; ; attempt++ {
		err := c.sync.SyncUsername(ctx, ev.UserID, ev.Username)
		if err == nil {
			return
		}
		if attempt >= c.maxAttempts {
			lg.Error("Drop user update",
				zap.String("user_id", ev.UserID),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}
		lg.Warn("Retry user update", zap.String("user_id", ev.UserID), zap.Error(err))
		if !c.wait(ctx) {
			return
		}
	}
}

// wait sleeps for the backoff and reports whether ctx is still live.
func (c *Consumer) wait(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
