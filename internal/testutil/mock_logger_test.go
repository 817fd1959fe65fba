package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/testutil"
)

func TestRecordingLogger(t *testing.T) {
	logger := testutil.NewRecordingLogger()

	logger.Info("weights computed", logging.Int("atoms", 6))

	messages := logger.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	v, ok := messages[0].Field("atoms")
	assert.True(t, ok)
	assert.Equal(t, 6, v)

	logger.Clear()
	assert.Empty(t, logger.Messages())

	logger.Error("render failed")
	assert.True(t, logger.HasMessage("error", "render"))
	assert.False(t, logger.HasMessage("info", "render"))
	assert.Equal(t, 1, logger.Count("error"))
}

func TestRecordingLogger_ChildrenShareSink(t *testing.T) {
	root := testutil.NewRecordingLogger()
	child := root.Named("simmap").With(logging.String("job", "j1")).Named("worker")
	child.Warn("retrying")

	messages := root.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "simmap.worker", messages[0].Logger)
	v, ok := messages[0].Field("job")
	assert.True(t, ok)
	assert.Equal(t, "j1", v)
}

//Personal.AI order the ending
