package kafka

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

func fastOptions(maxAttempts int) ConsumerOptions {
	return ConsumerOptions{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestConsumer_ProcessAndCommit(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: TopicMapJobs, Offset: 1, Value: []byte("a")},
		{Topic: TopicMapJobs, Offset: 2, Value: []byte("b"), Headers: []kafka.Header{{Key: "event_type", Value: []byte(EventJobSubmitted)}}},
	}}
	c := NewConsumerWithReader(reader, fastOptions(3), logging.NewNopLogger())

	var mu sync.Mutex
	var seen []string
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(msg.Value))
		return nil
	}))

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)

	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, seen)
	mu.Unlock()

	processed, failed, _, _ := c.Metrics()
	assert.Equal(t, int64(2), processed)
	assert.Zero(t, failed)
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Offset: 7}}}
	c := NewConsumerWithReader(reader, fastOptions(3), logging.NewNopLogger())

	var calls atomic.Int32
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	}))

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), calls.Load())
	_, _, retried, _ := c.Metrics()
	assert.Equal(t, int64(2), retried)
}

func TestConsumer_ExhaustedGoesToHandler(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Offset: 9, Value: []byte("bad")}}}

	var gotCause error
	var gotMsg *Message
	opts := fastOptions(2)
	opts.OnExhausted = func(ctx context.Context, msg *Message, cause error) error {
		gotMsg, gotCause = msg, cause
		return nil
	}
	c := NewConsumerWithReader(reader, opts, logging.NewNopLogger())

	var calls atomic.Int32
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return fmt.Errorf("boom")
	}))

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(2), calls.Load())
	require.NotNil(t, gotMsg)
	assert.Equal(t, "bad", string(gotMsg.Value))
	assert.EqualError(t, gotCause, "boom")
	_, failed, _, dlq := c.Metrics()
	assert.Equal(t, int64(1), failed)
	assert.Equal(t, int64(1), dlq)
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Offset: 3}}}
	var exhausted atomic.Bool
	opts := fastOptions(5)
	opts.OnExhausted = func(ctx context.Context, msg *Message, cause error) error {
		exhausted.Store(true)
		assert.EqualError(t, cause, "invalid request")
		return nil
	}
	c := NewConsumerWithReader(reader, opts, logging.NewNopLogger())

	var calls atomic.Int32
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		calls.Add(1)
		return backoff.Permanent(fmt.Errorf("invalid request"))
	}))

	assert.Eventually(t, exhausted.Load, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Equal(t, int32(1), calls.Load())
}

func TestConsumer_DeadLetterFailureLeavesUncommitted(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Offset: 4}, {Offset: 5}}}
	var attempts atomic.Int32
	opts := fastOptions(1)
	opts.OnExhausted = func(ctx context.Context, msg *Message, cause error) error {
		attempts.Add(1)
		return fmt.Errorf("dlq down")
	}
	c := NewConsumerWithReader(reader, opts, logging.NewNopLogger())
	var handled atomic.Int32
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		handled.Add(1)
		return fmt.Errorf("fail")
	}))

	assert.Eventually(t, func() bool { return attempts.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Empty(t, reader.commits())
	assert.Equal(t, int32(1), handled.Load(), "the next message must not be fetched")
}

func TestConsumer_DeadLetterRetriedBeforeNextMessage(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Offset: 1}, {Offset: 2}}}
	var attempts atomic.Int32
	opts := fastOptions(1)
	opts.OnExhausted = func(ctx context.Context, msg *Message, cause error) error {
		assert.Equal(t, int64(1), msg.Offset)
		if attempts.Add(1) < 3 {
			return fmt.Errorf("dlq down")
		}
		return nil
	}
	c := NewConsumerWithReader(reader, opts, logging.NewNopLogger())
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error {
		if msg.Offset == 1 {
			return backoff.Permanent(fmt.Errorf("bad job"))
		}
		return nil
	}))

	assert.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	commits := reader.commits()
	assert.Equal(t, int64(1), commits[0].Offset)
	assert.Equal(t, int64(2), commits[1].Offset)
	assert.Equal(t, int32(3), attempts.Load())
	_, _, _, dlq := c.Metrics()
	assert.Equal(t, int64(1), dlq)
}

func TestConsumer_FetchErrorsAreRetried(t *testing.T) {
	reader := &mockKafkaReader{
		fetchErrs: []error{fmt.Errorf("leader not available"), fmt.Errorf("leader not available")},
		queue:     []kafka.Message{{Offset: 1}},
	}
	c := NewConsumerWithReader(reader, fastOptions(1), logging.NewNopLogger())
	require.NoError(t, c.Start(context.Background(), func(ctx context.Context, msg *Message) error { return nil }))

	assert.Eventually(t, func() bool { return len(reader.commits()) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestConsumer_StartTwiceAndAfterClose(t *testing.T) {
	reader := &mockKafkaReader{}
	c := NewConsumerWithReader(reader, fastOptions(1), logging.NewNopLogger())
	handler := func(ctx context.Context, msg *Message) error { return nil }

	require.Error(t, c.Start(context.Background(), nil))
	require.NoError(t, c.Start(context.Background(), handler))
	require.Error(t, c.Start(context.Background(), handler))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, ErrConsumerClosed, c.Start(context.Background(), handler))
}

//Personal.AI order the ending
