package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

var ErrConsumerClosed = errors.New(errors.ErrCodeMessagingError, "consumer closed")

// Message is the consumer-side view of a fetched record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes one message. Wrap an error with backoff.Permanent
// to skip the remaining attempts.
type MessageHandler func(ctx context.Context, msg *Message) error

// ExhaustedHandler receives a message whose attempts ran out, with the last
// handler error.
type ExhaustedHandler func(ctx context.Context, msg *Message, cause error) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerOptions tunes the retry loop.
type ConsumerOptions struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	OnExhausted    ExhaustedHandler
}

func (o *ConsumerOptions) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 200 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
}

type ConsumerMetrics struct {
	MessagesProcessed atomic.Int64
	MessagesFailed    atomic.Int64
	MessagesRetried   atomic.Int64
	MessagesDLQ       atomic.Int64
}

// Consumer runs a single fetch-handle-commit loop over one topic.
type Consumer struct {
	reader  ReaderInterface
	opts    ConsumerOptions
	logger  logging.Logger
	metrics *ConsumerMetrics

	mu      sync.Mutex
	running bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer reads the job topic as part of cfg.GroupID.
func NewConsumer(cfg config.KafkaConfig, opts ConsumerOptions, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "Brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "GroupID required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = cfg.MaxAttempts
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          TopicsFromConfig(cfg).Jobs,
		MinBytes:       1,
		MaxBytes:       maxMessageBytes * 10,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
	return NewConsumerWithReader(reader, opts, logger), nil
}

func NewConsumerWithReader(r ReaderInterface, opts ConsumerOptions, logger logging.Logger) *Consumer {
	opts.applyDefaults()
	return &Consumer{reader: r, opts: opts, logger: logger, metrics: &ConsumerMetrics{}}
}

// Start launches the loop. It returns immediately; Close stops it.
func (c *Consumer) Start(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New(errors.ErrCodeValidation, "handler required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConsumerClosed
	}
	if c.running {
		return errors.New(errors.ErrCodeConflict, "consumer already running")
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.wg.Add(1)
	go c.consumeLoop(ctx, handler)
	c.logger.Info("Kafka consumer started", logging.Int("max_attempts", c.opts.MaxAttempts))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context, handler MessageHandler) {
	defer c.wg.Done()

	fetchBackoff := backoff.NewExponentialBackOff()
	fetchBackoff.InitialInterval = c.opts.InitialBackoff
	fetchBackoff.MaxInterval = c.opts.MaxBackoff
	fetchBackoff.MaxElapsedTime = 0

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := fetchBackoff.NextBackOff()
			c.logger.Error("Fetch failed", logging.Err(err), logging.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		fetchBackoff.Reset()

		msg := fromKafkaMessage(m)
		if err := c.processMessage(ctx, handler, msg); err != nil {
			// Committing a later offset would acknowledge this one, so the
			// loop stops here and the group redelivers it to the next member.
			c.logger.Error("Message left uncommitted, consumer stopping",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("Commit failed", logging.Int64("offset", m.Offset), logging.Err(err))
		}
	}
}

// processMessage runs handler with retries. A nil return means the message
// may be committed: it succeeded or was handed to OnExhausted.
func (c *Consumer) processMessage(ctx context.Context, handler MessageHandler, msg *Message) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialBackoff
	b.MaxInterval = c.opts.MaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxAttempts-1)), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			c.metrics.MessagesRetried.Add(1)
		}
		return handler(ctx, msg)
	}, policy)
	if err == nil {
		c.metrics.MessagesProcessed.Add(1)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.metrics.MessagesFailed.Add(1)
	var perm *backoff.PermanentError
	if stderrors.As(err, &perm) {
		err = perm.Unwrap()
	}
	c.logger.Warn("Message handling exhausted",
		logging.Int("attempts", attempt),
		logging.Int64("offset", msg.Offset),
		logging.Err(err))

	if c.opts.OnExhausted == nil {
		return nil
	}
	if dlqErr := c.deadLetter(ctx, msg, err); dlqErr != nil {
		return dlqErr
	}
	c.metrics.MessagesDLQ.Add(1)
	return nil
}

// deadLetter hands msg to OnExhausted until it succeeds, ctx ends or it
// returns a permanent error.
func (c *Consumer) deadLetter(ctx context.Context, msg *Message, cause error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialBackoff
	b.MaxInterval = c.opts.MaxBackoff
	b.MaxElapsedTime = 0

	err := backoff.RetryNotify(func() error {
		return c.opts.OnExhausted(ctx, msg, cause)
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		c.logger.Error("Dead-letter hand-off failed",
			logging.Int64("offset", msg.Offset),
			logging.Duration("retry_in", wait),
			logging.Err(err))
	})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Consumer) Metrics() (processed, failed, retried, dlq int64) {
	return c.metrics.MessagesProcessed.Load(), c.metrics.MessagesFailed.Load(),
		c.metrics.MessagesRetried.Load(), c.metrics.MessagesDLQ.Load()
}

// Close stops the loop, waits for the in-flight message and closes the reader.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed")
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Headers:   headers,
		Timestamp: m.Time,
	}
}

//Personal.AI order the ending
