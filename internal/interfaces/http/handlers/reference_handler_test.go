package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

func TestReferenceHandler_Register(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewReferenceHandler(svc))

	svc.On("RegisterReferences", mock.Anything, []appsimmap.ReferenceInput{
		{Name: "phenol", SMILES: "c1ccccc1O"},
		{SMILES: "CCO"},
	}).Return([]*domain.Reference{
		{ID: 1, Name: "phenol", SMILES: "c1ccccc1O", Vector: []byte{0xff}},
		{ID: 2, Name: "CCO", SMILES: "CCO"},
	}, nil)

	w := doRequest(t, r, http.MethodPost, "/api/v1/references", dto.RegisterReferencesRequest{
		References: []dto.ReferenceInput{{Name: "phenol", SMILES: "c1ccccc1O"}, {SMILES: "CCO"}},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var out dto.RegisterReferencesResponse
	decodeEnvelope(t, w, &out)
	assert.Len(t, out.References, 2)
	assert.EqualValues(t, 1, out.References[0].ID)
	assert.NotContains(t, w.Body.String(), "vector")
	svc.AssertExpectations(t)
}

func TestReferenceHandler_RegisterValidation(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewReferenceHandler(svc))

	w := doRequest(t, r, http.MethodPost, "/api/v1/references", dto.RegisterReferencesRequest{
		References: []dto.ReferenceInput{{SMILES: "CCO"}, {Name: "blank"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reference 1", decodeEnvelope(t, w, nil).Error.Detail)
}

func TestReferenceHandler_Nearest(t *testing.T) {
	svc := new(mockService)
	r := newTestRouter(NewReferenceHandler(svc))

	svc.On("NearestReferences", mock.Anything, "CCN", 3).Return([]domain.ReferenceMatch{
		{Reference: domain.Reference{ID: 2, Name: "ethanol", SMILES: "CCO"}, Distance: 0.4},
	}, nil)
	svc.On("NearestReferences", mock.Anything, "CCC", 0).
		Return(nil, errors.New(errors.ErrCodeFeatureDisabled, "reference library is not configured"))

	w := doRequest(t, r, http.MethodGet, "/api/v1/references/nearest?smiles=CCN&k=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var out dto.NearestResponse
	decodeEnvelope(t, w, &out)
	if assert.Len(t, out.Matches, 1) {
		assert.Equal(t, "ethanol", out.Matches[0].Name)
		assert.Equal(t, 0.4, out.Matches[0].Distance)
	}

	w = doRequest(t, r, http.MethodGet, "/api/v1/references/nearest?smiles=CCC", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, q := range []string{"", "?smiles=CCN&k=0", "?smiles=CCN&k=abc", "?smiles=CCN&k=101"} {
		w = doRequest(t, r, http.MethodGet, "/api/v1/references/nearest"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
	svc.AssertExpectations(t)
}

//Personal.AI order the ending
