package milvus

import (
	"context"
	"fmt"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/config"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

func withFactory(t *testing.T, f MilvusClientFactory) {
	t.Helper()
	orig := milvusNewClient
	milvusNewClient = f
	t.Cleanup(func() { milvusNewClient = orig })
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(config.MilvusConfig{Addr: "localhost:19530"}))
	assert.NoError(t, ValidateConfig(config.MilvusConfig{Addr: "localhost:19530", Dim: 1024}))

	err := ValidateConfig(config.MilvusConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	assert.Error(t, ValidateConfig(config.MilvusConfig{Addr: "x:1", Dim: 100}))
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(config.MilvusConfig{Addr: "x:1"})
	assert.Equal(t, "default", cfg.DBName)
	assert.Equal(t, "simmap_references", cfg.Collection)
	assert.Equal(t, 2048, cfg.Dim)
	assert.Equal(t, 128, cfg.NList)
	assert.Equal(t, 16, cfg.NProbe)
}

func TestNewClient_Success(t *testing.T) {
	mock := &mockMilvusClient{}
	var got client.Config
	withFactory(t, func(ctx context.Context, conf client.Config) (client.Client, error) {
		got = conf
		return mock, nil
	})

	c, err := NewClient(config.MilvusConfig{Addr: "milvus:19530", Username: "u"}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, c.IsHealthy())
	assert.Equal(t, "milvus:19530", got.Address)
	assert.Equal(t, "default", got.DBName)
	assert.Len(t, got.DialOptions, 2)

	require.NoError(t, c.Close())
	assert.True(t, mock.closed)
	require.NoError(t, c.Close())
}

func TestNewClient_FactoryError(t *testing.T) {
	withFactory(t, func(ctx context.Context, conf client.Config) (client.Client, error) {
		return nil, fmt.Errorf("dial refused")
	})
	_, err := NewClient(config.MilvusConfig{Addr: "milvus:19530"}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchError))
}

func TestNewClient_Unhealthy(t *testing.T) {
	mock := &mockMilvusClient{checkHealthFunc: func(ctx context.Context) (*entity.MilvusState, error) {
		return &entity.MilvusState{IsHealthy: false}, nil
	}}
	withFactory(t, func(ctx context.Context, conf client.Config) (client.Client, error) {
		return mock, nil
	})
	_, err := NewClient(config.MilvusConfig{Addr: "milvus:19530"}, logging.NewNopLogger())
	assert.Equal(t, ErrConnectionFailed, err)
	assert.True(t, mock.closed)
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	mock := &mockMilvusClient{}
	c := NewClientWithMilvus(mock, config.MilvusConfig{Collection: "refs", Dim: 1024}, logging.NewNopLogger())

	require.NoError(t, c.EnsureCollection(context.Background()))

	require.NotNil(t, mock.createdSchema)
	assert.Equal(t, "refs", mock.createdSchema.CollectionName)
	require.Len(t, mock.createdSchema.Fields, 4)
	fp := mock.createdSchema.Fields[3]
	assert.Equal(t, entity.FieldTypeBinaryVector, fp.DataType)
	assert.Equal(t, "1024", fp.TypeParams["dim"])

	require.NotNil(t, mock.createdIndex)
	assert.Equal(t, entity.BinIvfFlat, mock.createdIndex.IndexType())
	assert.Equal(t, []string{"refs"}, mock.loaded)
}

func TestEnsureCollection_Existing(t *testing.T) {
	mock := &mockMilvusClient{hasCollection: true}
	c := NewClientWithMilvus(mock, config.MilvusConfig{}, logging.NewNopLogger())

	require.NoError(t, c.EnsureCollection(context.Background()))
	assert.Nil(t, mock.createdSchema)
	assert.Equal(t, []string{"simmap_references"}, mock.loaded)
}

func TestEnsureCollection_Error(t *testing.T) {
	mock := &mockMilvusClient{hasErr: fmt.Errorf("rpc error")}
	c := NewClientWithMilvus(mock, config.MilvusConfig{}, logging.NewNopLogger())
	err := c.EnsureCollection(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeSearchError))
}

//Personal.AI order the ending
