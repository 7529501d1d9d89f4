package events

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/xenking/storefront-backoffice/internal/domain/user"
)

var (
	_ user.Publisher = (*Publisher)(nil)
	_ user.Publisher = NopPublisher{}
)

// Publisher produces UserUpdated records.
type Publisher struct {
	cl    ProducerClient
	topic string
}

// NewPublisher returns a Publisher producing to topic through cl.
func NewPublisher(cl ProducerClient, topic string) *Publisher {
	return &Publisher{cl: cl, topic: topic}
}

// PublishUserUpdated produces ev and waits for the brokers to acknowledge it.
func (p *Publisher) PublishUserUpdated(ctx context.Context, ev user.Updated) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "publish user updated")
	}
	b, err := EncodeUserUpdated(ev)
	if err != nil {
		return err
	}
	r := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.UserID),
		Value: b,
	}
	if err := p.cl.ProduceSync(ctx, r).FirstErr(); err != nil {
		return errors.Wrap(err, "publish user updated")
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *Publisher) Close() {
	p.cl.Close()
}

// NopPublisher discards events. It is used when no brokers are configured.
type NopPublisher struct{}

// PublishUserUpdated does nothing.
func (NopPublisher) PublishUserUpdated(context.Context, user.Updated) error { return nil }
