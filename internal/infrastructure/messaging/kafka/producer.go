package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeMessagingError, "producer closed")

const maxMessageBytes = 1024 * 1024

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes map jobs, their results and dead letters. It satisfies
// simmap.JobPublisher.
type Producer struct {
	writer  WriterInterface
	topics  Topics
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 50 * time.Millisecond
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchTimeout: batchTimeout,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	return NewProducerWithWriter(writer, TopicsFromConfig(cfg), logger), nil
}

func NewProducerWithWriter(w WriterInterface, topics Topics, logger logging.Logger) *Producer {
	return &Producer{writer: w, topics: topics, logger: logger, metrics: &ProducerMetrics{}}
}

// Publish writes one envelope to topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if topic == "" {
		return errors.New(errors.ErrCodeValidation, "Topic required")
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	if len(msg.Value) > maxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "Message too large")
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessagingError, "publish failed").WithDetail(topic)
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))

	p.logger.Debug("Message published",
		logging.String("topic", topic),
		logging.String("event_type", env.EventType),
		logging.Int64("latency_ms", time.Since(start).Milliseconds()))
	return nil
}

// PublishJob enqueues job keyed by its id so redeliveries land on one partition.
func (p *Producer) PublishJob(ctx context.Context, job *simmap.Job) error {
	env, err := NewEventEnvelope(EventJobSubmitted, job)
	if err != nil {
		return err
	}
	return p.Publish(ctx, p.topics.Jobs, []byte(job.ID), env)
}

func (p *Producer) PublishResult(ctx context.Context, res *simmap.JobResult) error {
	env, err := NewEventEnvelope(EventJobCompleted, res)
	if err != nil {
		return err
	}
	return p.Publish(ctx, p.topics.Results, []byte(res.JobID), env)
}

// PublishDeadLetter parks a job that exhausted its attempts. The last error is
// copied into the envelope metadata.
func (p *Producer) PublishDeadLetter(ctx context.Context, job *simmap.Job) error {
	env, err := NewEventEnvelope(EventJobDeadLettered, job)
	if err != nil {
		return err
	}
	env.Metadata = map[string]string{
		"original_topic": p.topics.Jobs,
		"error_message":  job.Error,
	}
	return p.Publish(ctx, p.topics.DeadLetter, []byte(job.ID), env)
}

// Topics returns the topic names the producer writes to.
func (p *Producer) Topics() Topics {
	return p.topics
}

func (p *Producer) Metrics() (sent, failed, bytes int64) {
	return p.metrics.MessagesSent.Load(), p.metrics.MessagesFailed.Load(), p.metrics.BytesSent.Load()
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

//Personal.AI order the ending
