package milvus

import (
	"context"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// mockMilvusClient implements the calls the package makes; any other call
// panics on the nil embedded interface.
type mockMilvusClient struct {
	client.Client

	checkHealthFunc func(ctx context.Context) (*entity.MilvusState, error)
	hasCollection   bool
	hasErr          error

	createdSchema *entity.Schema
	createdIndex  entity.Index
	loaded        []string

	upserted  []entity.Column
	upsertErr error

	searchMetric entity.MetricType
	searchTopK   int
	searchFunc   func() ([]client.SearchResult, error)
	closed       bool
}

func (m *mockMilvusClient) CheckHealth(ctx context.Context) (*entity.MilvusState, error) {
	if m.checkHealthFunc != nil {
		return m.checkHealthFunc(ctx)
	}
	return &entity.MilvusState{IsHealthy: true}, nil
}

func (m *mockMilvusClient) HasCollection(ctx context.Context, name string) (bool, error) {
	return m.hasCollection, m.hasErr
}

func (m *mockMilvusClient) CreateCollection(ctx context.Context, schema *entity.Schema, shards int32, opts ...client.CreateCollectionOption) error {
	m.createdSchema = schema
	return nil
}

func (m *mockMilvusClient) CreateIndex(ctx context.Context, coll, field string, idx entity.Index, async bool, opts ...client.IndexOption) error {
	m.createdIndex = idx
	return nil
}

func (m *mockMilvusClient) LoadCollection(ctx context.Context, coll string, async bool, opts ...client.LoadCollectionOption) error {
	m.loaded = append(m.loaded, coll)
	return nil
}

func (m *mockMilvusClient) Upsert(ctx context.Context, coll, partition string, columns ...entity.Column) (entity.Column, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upserted = columns
	return columns[0], nil
}

func (m *mockMilvusClient) Search(ctx context.Context, coll string, partitions []string, expr string, outputFields []string,
	vectors []entity.Vector, vectorField string, metric entity.MetricType, topK int, sp entity.SearchParam,
	opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	m.searchMetric = metric
	m.searchTopK = topK
	if m.searchFunc != nil {
		return m.searchFunc()
	}
	return nil, nil
}

func (m *mockMilvusClient) Close() error {
	m.closed = true
	return nil
}

//Personal.AI order the ending
