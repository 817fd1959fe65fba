package kafka

import (
	"context"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

func TestTopicManager_EnsureTopics(t *testing.T) {
	conn := &mockConn{}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())

	topics := DefaultTopics(Topics{Jobs: "j", Results: "r", DeadLetter: "d"})
	require.NoError(t, m.EnsureTopics(context.Background(), topics))

	require.Len(t, conn.created, 3)
	assert.Equal(t, "j", conn.created[0].Topic)
	assert.Equal(t, 6, conn.created[0].NumPartitions)
	require.Len(t, conn.created[2].ConfigEntries, 1)
	assert.Equal(t, "retention.ms", conn.created[2].ConfigEntries[0].ConfigName)
	assert.Equal(t, "2592000000", conn.created[2].ConfigEntries[0].ConfigValue)
}

func TestTopicManager_CreateExistingTopic(t *testing.T) {
	conn := &mockConn{
		createErr:  fmt.Errorf("topic already exists"),
		partitions: map[string][]kafka.Partition{"j": {{Topic: "j", ID: 0}}},
	}
	m := NewTopicManagerWithConn(conn, logging.NewNopLogger())
	require.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "j", NumPartitions: 1, ReplicationFactor: 1}))

	err := m.CreateTopic(context.Background(), TopicConfig{Name: "other", NumPartitions: 1, ReplicationFactor: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
}

func TestTopicManager_Validation(t *testing.T) {
	m := NewTopicManagerWithConn(&mockConn{}, logging.NewNopLogger())
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "x"}))

	_, err := NewTopicManager(nil, logging.NewNopLogger())
	assert.Error(t, err)
}

//Personal.AI order the ending
