package simmap

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// MockRepository is a mock implementation of domain.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, rec *domain.MapRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, id common.ID) (*domain.MapRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MapRecord), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.MapRecord, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.MapRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Delete(ctx context.Context, id common.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockJobRepository is a mock implementation of domain.JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) SaveJob(ctx context.Context, rec *domain.JobRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockJobRepository) GetJob(ctx context.Context, id common.ID) (*domain.JobRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobRecord), args.Error(1)
}

// MockImageStore is a mock implementation of domain.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockImageStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

// MockSearchIndex is a mock implementation of domain.SearchIndex
type MockSearchIndex struct {
	mock.Mock
}

func (m *MockSearchIndex) Index(ctx context.Context, rec *domain.MapRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSearchIndex) Search(ctx context.Context, q domain.SearchQuery) ([]domain.SearchHit, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]domain.SearchHit), args.Get(1).(int64), args.Error(2)
}

func (m *MockSearchIndex) Delete(ctx context.Context, id common.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockWeightsCache is a mock implementation of domain.WeightsCache
type MockWeightsCache struct {
	mock.Mock
}

func (m *MockWeightsCache) Get(ctx context.Context, key string) ([]float64, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]float64), args.Bool(1), args.Error(2)
}

func (m *MockWeightsCache) Set(ctx context.Context, key string, weights []float64, ttl time.Duration) error {
	args := m.Called(ctx, key, weights, ttl)
	return args.Error(0)
}

// MockJobPublisher is a mock implementation of domain.JobPublisher
type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) PublishJob(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobPublisher) PublishResult(ctx context.Context, res *domain.JobResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockJobPublisher) PublishDeadLetter(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockReferenceLibrary is a mock implementation of domain.ReferenceLibrary
type MockReferenceLibrary struct {
	mock.Mock
}

func (m *MockReferenceLibrary) Upsert(ctx context.Context, refs []*domain.Reference) error {
	args := m.Called(ctx, refs)
	return args.Error(0)
}

func (m *MockReferenceLibrary) Nearest(ctx context.Context, vector []byte, k int) ([]domain.ReferenceMatch, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferenceMatch), args.Error(1)
}

// MockRenderer is a mock implementation of domain.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(fig *domain.Figure, format string) ([]byte, error) {
	args := m.Called(fig, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockLocker is a mock implementation of Locker
type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, name, ttl)
	if !args.Bool(0) || args.Error(1) != nil {
		return nil, args.Bool(0), args.Error(1)
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, true, nil
}

//Personal.AI order the ending
