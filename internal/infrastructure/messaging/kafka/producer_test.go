package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

func newTestProducer(w *mockKafkaWriter) *Producer {
	return NewProducerWithWriter(w, TopicsFromConfig(config.KafkaConfig{}), logging.NewNopLogger())
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestTopicsFromConfig(t *testing.T) {
	topics := TopicsFromConfig(config.KafkaConfig{JobTopic: "jobs"})
	assert.Equal(t, "jobs", topics.Jobs)
	assert.Equal(t, TopicMapResults, topics.Results)
	assert.Equal(t, TopicMapDeadLetter, topics.DeadLetter)
}

func TestProducer_PublishJob(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	job := &simmap.Job{
		ID:          "job-1",
		Request:     simmap.MapRequest{Reference: "c1ccccc1O", Probe: "c1ccccc1N"},
		SubmittedAt: time.Now().UTC(),
	}
	require.NoError(t, p.PublishJob(context.Background(), job))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicMapJobs, msgs[0].Topic)
	assert.Equal(t, []byte("job-1"), msgs[0].Key)
	assert.Equal(t, EventJobSubmitted, headerValue(msgs[0], "event_type"))

	env, err := MessageToEventEnvelope(&Message{Value: msgs[0].Value})
	require.NoError(t, err)
	var decoded simmap.Job
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Request.Probe, decoded.Request.Probe)

	sent, failed, bytes := p.Metrics()
	assert.Equal(t, int64(1), sent)
	assert.Zero(t, failed)
	assert.Positive(t, bytes)
}

func TestProducer_PublishResult(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	res := &simmap.JobResult{JobID: "job-2", MapID: "map-2", Status: simmap.JobSucceeded}
	require.NoError(t, p.PublishResult(context.Background(), res))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicMapResults, msgs[0].Topic)
	assert.Equal(t, EventJobCompleted, headerValue(msgs[0], "event_type"))
}

func TestProducer_PublishDeadLetter(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	job := &simmap.Job{ID: "job-3", Attempt: 3, Error: "invalid SMILES"}
	require.NoError(t, p.PublishDeadLetter(context.Background(), job))

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, TopicMapDeadLetter, msgs[0].Topic)
	assert.Equal(t, "invalid SMILES", headerValue(msgs[0], "error_message"))
	assert.Equal(t, TopicMapJobs, headerValue(msgs[0], "original_topic"))
}

func TestProducer_WriteFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return fmt.Errorf("broker unavailable")
	}}
	p := newTestProducer(w)

	err := p.PublishJob(context.Background(), &simmap.Job{ID: "job-4"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))

	_, failed, _ := p.Metrics()
	assert.Equal(t, int64(1), failed)
}

func TestProducer_RejectsOversizedMessage(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	env, err := NewEventEnvelope(EventJobSubmitted, map[string]string{"blob": string(make([]byte, maxMessageBytes))})
	require.NoError(t, err)
	err = p.Publish(context.Background(), TopicMapJobs, nil, env)
	require.Error(t, err)
	assert.Empty(t, w.messages())
}

func TestProducer_Close(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.Equal(t, ErrProducerClosed, p.PublishJob(context.Background(), &simmap.Job{ID: "x"}))
}

func TestEventEnvelope_DecodeEmptyPayload(t *testing.T) {
	env := &EventEnvelope{Payload: json.RawMessage("null")}
	var target simmap.Job
	err := env.DecodePayload(&target)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

//Personal.AI order the ending
