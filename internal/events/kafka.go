// Package events carries user change notifications over Kafka.
//
// The API publishes a UserUpdated record keyed by user id after every user
// update. A consumer group applies those records to the denormalised
// usernames stored on carts.
package events

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/twmb/franz-go/pkg/kgo"
)

// ProducerClient is the subset of *kgo.Client used by Publisher.
type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// ConsumerClient is the subset of *kgo.Client used by Consumer.
type ConsumerClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
	Close()
}

var (
	_ ProducerClient = (*kgo.Client)(nil)
	_ ConsumerClient = (*kgo.Client)(nil)
)

// NewProducerClient connects a producing client to brokers.
func NewProducerClient(ctx context.Context, brokers []string, topic string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create producer client")
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, errors.Wrap(err, "ping brokers")
	}
	return cl, nil
}

// NewConsumerClient joins group and consumes topic. Offsets are committed by
// the Consumer after records are applied.
func NewConsumerClient(brokers []string, topic, group string) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
		kgo.DisableAutoCommit(),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create consumer client")
	}
	return cl, nil
}
