package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig selects the topic that carries pending callbacks.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue moves callbacks through a Kafka topic so that delivery can run
// in a separate consumer group from the inbound HTTP handlers. Each message
// is committed after its single delivery attempt, whatever the outcome.
type KafkaQueue struct {
	writer         messageWriter
	reader         messageReader
	deliverer      Deliverer
	publishTimeout time.Duration
	logger         *slog.Logger
}

// defaultPublishTimeout bounds how long Enqueue may wait on the producer.
const defaultPublishTimeout = 250 * time.Millisecond

// NewKafkaQueue connects a producer and a consumer-group reader to cfg.Topic.
func NewKafkaQueue(cfg KafkaConfig, d Deliverer, logger *slog.Logger) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka queue requires brokers and a topic")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "ondc-bpp-dispatch"
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
		// Async keeps broker round trips off the inbound request path;
		// publish failures surface through Completion.
		Async: true,
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	q := newKafkaQueue(w, r, d, logger)
	w.Completion = q.published
	return q, nil
}

func newKafkaQueue(w messageWriter, r messageReader, d Deliverer, logger *slog.Logger) *KafkaQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaQueue{
		writer:         w,
		reader:         r,
		deliverer:      d,
		publishTimeout: defaultPublishTimeout,
		logger:         logger.With("component", "kafka_queue"),
	}
}

// published reports the outcome of an asynchronous batch write.
func (q *KafkaQueue) published(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		q.logger.Error("callback job not published", "key", string(m.Key), "error", err)
	}
}

// Enqueue publishes job keyed by transaction id, so one transaction's
// callbacks land on one partition. The write is bounded by the publish
// timeout, independent of ctx's deadline.
func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	job = Prepare(ctx, job)
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode dispatch job: %w", err)
	}
	key := job.ID
	if job.Envelope != nil && job.Envelope.Context.TransactionID != "" {
		key = job.Envelope.Context.TransactionID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(job.Action)},
		},
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.publishTimeout)
	defer cancel()
	if err := q.writer.WriteMessages(pctx, msg); err != nil {
		return fmt.Errorf("publish dispatch job: %w", err)
	}
	return nil
}

// Run consumes jobs until ctx is cancelled.
func (q *KafkaQueue) Run(ctx context.Context) error {
	for {
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch dispatch job: %w", err)
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			q.logger.ErrorContext(ctx, "discarding malformed dispatch job", "offset", msg.Offset, "error", err)
		} else {
			_, _ = q.deliverer.Deliver(context.WithoutCancel(ctx), job)
		}

		if err := q.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit dispatch job: %w", err)
		}
	}
}

// Close flushes the producer and leaves the consumer group.
func (q *KafkaQueue) Close() error {
	return errors.Join(q.writer.Close(), q.reader.Close())
}
