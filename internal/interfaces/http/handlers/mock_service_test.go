package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/middleware"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
}

var _ appsimmap.Service = (*mockService)(nil)

func (m *mockService) ComputeWeights(ctx context.Context, in *appsimmap.WeightsInput) (*appsimmap.WeightsResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*appsimmap.WeightsResult)
	return res, args.Error(1)
}

func (m *mockService) ComputeModelWeights(ctx context.Context, in *appsimmap.ModelWeightsInput) (*appsimmap.WeightsResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*appsimmap.WeightsResult)
	return res, args.Error(1)
}

func (m *mockService) Standardize(weights []float64) *appsimmap.WeightsResult {
	args := m.Called(weights)
	res, _ := args.Get(0).(*appsimmap.WeightsResult)
	return res
}

func (m *mockService) GenerateMap(ctx context.Context, req *domain.MapRequest) (*appsimmap.MapResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*appsimmap.MapResult)
	return res, args.Error(1)
}

func (m *mockService) GetMap(ctx context.Context, id common.ID) (*domain.MapRecord, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*domain.MapRecord)
	return res, args.Error(1)
}

func (m *mockService) ListMaps(ctx context.Context, q domain.ListQuery) (*appsimmap.ListResult, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*appsimmap.ListResult)
	return res, args.Error(1)
}

func (m *mockService) DeleteMap(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockService) MapImage(ctx context.Context, id common.ID) ([]byte, string, error) {
	args := m.Called(ctx, id)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

func (m *mockService) ImageURL(ctx context.Context, id common.ID, expiry time.Duration) (string, error) {
	args := m.Called(ctx, id, expiry)
	return args.String(0), args.Error(1)
}

func (m *mockService) SearchMaps(ctx context.Context, q domain.SearchQuery) (*appsimmap.SearchResult, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*appsimmap.SearchResult)
	return res, args.Error(1)
}

func (m *mockService) SubmitJob(ctx context.Context, req *domain.MapRequest) (*domain.JobRecord, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.JobRecord)
	return res, args.Error(1)
}

func (m *mockService) GetJob(ctx context.Context, id common.ID) (*domain.JobRecord, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*domain.JobRecord)
	return res, args.Error(1)
}

func (m *mockService) HandleJob(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}

func (m *mockService) HandleExhausted(ctx context.Context, job *domain.Job, cause error) error {
	return m.Called(ctx, job, cause).Error(0)
}

func (m *mockService) RegisterReferences(ctx context.Context, inputs []appsimmap.ReferenceInput) ([]*domain.Reference, error) {
	args := m.Called(ctx, inputs)
	res, _ := args.Get(0).([]*domain.Reference)
	return res, args.Error(1)
}

func (m *mockService) NearestReferences(ctx context.Context, smiles string, k int) ([]domain.ReferenceMatch, error) {
	args := m.Called(ctx, smiles, k)
	res, _ := args.Get(0).([]domain.ReferenceMatch)
	return res, args.Error(1)
}

func (m *mockService) GenerateMapAgainstNearest(ctx context.Context, req *domain.MapRequest) (*appsimmap.MapResult, *domain.ReferenceMatch, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*appsimmap.MapResult)
	match, _ := args.Get(1).(*domain.ReferenceMatch)
	return res, match, args.Error(2)
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

type routable interface {
	RegisterRoutes(rg gin.IRouter)
}

func newTestRouter(h routable) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decodeEnvelope unmarshals the response envelope, placing data into dst.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) common.APIResponse[json.RawMessage] {
	t.Helper()
	var env common.APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env
}

//Personal.AI order the ending
