package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

func TestJobHandler_Submit(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewJobHandler(svc))

	now := time.Now().UTC()
	svc.On("SubmitJob", mock.Anything, mock.MatchedBy(func(req *domain.MapRequest) bool {
		return req.Probe == "CCN" && req.Reference == "CCO"
	})).Return(&domain.JobRecord{ID: "job-1", Status: domain.JobQueued, SubmittedAt: now, UpdatedAt: now}, nil)

	w := doRequest(t, r, http.MethodPost, "/api/v1/jobs", dto.MapRequest{Reference: "CCO", Probe: "CCN"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/v1/jobs/job-1", w.Header().Get("Location"))
	var out dto.JobStatus
	decodeEnvelope(t, w, &out)
	assert.Equal(t, domain.JobQueued, out.Status)
	assert.False(t, out.Done())
	svc.AssertExpectations(t)
}

func TestJobHandler_SubmitRejectsNearest(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewJobHandler(svc))

	w := doRequest(t, r, http.MethodPost, "/api/v1/jobs", dto.MapRequest{Probe: "CCN", Nearest: true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "SubmitJob", mock.Anything, mock.Anything)
}

func TestJobHandler_SubmitWithoutQueue(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewJobHandler(svc))

	svc.On("SubmitJob", mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeFeatureDisabled, "job queue is not configured"))

	w := doRequest(t, r, http.MethodPost, "/api/v1/jobs", dto.MapRequest{Reference: "CCO", Probe: "CCN"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	env := decodeEnvelope(t, w, nil)
	assert.Equal(t, "job queue is not configured", env.Error.Message)
}

func TestJobHandler_Get(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewJobHandler(svc))

	svc.On("GetJob", mock.Anything, common.ID("job-1")).
		Return(&domain.JobRecord{ID: "job-1", Status: domain.JobSucceeded, MapID: testMapID, Attempts: 2}, nil)
	svc.On("GetJob", mock.Anything, common.ID("job-2")).Return(nil, errors.NotFound("job not found"))

	w := doRequest(t, r, http.MethodGet, "/api/v1/jobs/job-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var out dto.JobStatus
	decodeEnvelope(t, w, &out)
	assert.True(t, out.Done())
	assert.Equal(t, testMapID, out.MapID)
	assert.Equal(t, 2, out.Attempts)

	w = doRequest(t, r, http.MethodGet, "/api/v1/jobs/job-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

//Personal.AI order the ending
