package simmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/pkg/errors"
)

func TestWeightsRequest_Validate(t *testing.T) {
	assert.NoError(t, (&WeightsRequest{Reference: "CCO", Probe: "CCN"}).Validate())
	assert.Error(t, (&WeightsRequest{Probe: "CCN"}).Validate())
	assert.Error(t, (&WeightsRequest{Reference: "CCO", Probe: "  "}).Validate())
}

func TestModelWeightsRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ModelWeightsRequest{Probe: "CCN", Model: &ModelSpec{}}).Validate())
	err := (&ModelWeightsRequest{Probe: "CCN"}).Validate()
	assert.True(t, errors.IsCode(err, errors.ErrCodeModelInvalid))
}

func TestMapRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     MapRequest
		wantErr bool
	}{
		{"fingerprint", MapRequest{Reference: "CCO", Probe: "CCN"}, false},
		{"model", MapRequest{Probe: "CCN", Model: &ModelSpec{}}, false},
		{"nearest", MapRequest{Probe: "CCN", Nearest: true}, false},
		{"no probe", MapRequest{Reference: "CCO"}, true},
		{"no reference or model", MapRequest{Probe: "CCN"}, true},
		{"nearest with reference", MapRequest{Probe: "CCN", Reference: "CCO", Nearest: true}, true},
		{"bad format", MapRequest{Reference: "CCO", Probe: "CCN", Options: MapOptions{Format: "gif"}}, true},
		{"svg upper", MapRequest{Reference: "CCO", Probe: "CCN", Options: MapOptions{Format: "SVG"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterReferencesRequest_Validate(t *testing.T) {
	assert.Error(t, (&RegisterReferencesRequest{}).Validate())
	err := (&RegisterReferencesRequest{References: []ReferenceInput{{SMILES: "CCO"}, {Name: "blank"}}}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference 1")
}

func TestJobStatus_Done(t *testing.T) {
	assert.False(t, (&JobStatus{Status: JobQueued}).Done())
	assert.False(t, (&JobStatus{Status: JobRunning}).Done())
	assert.True(t, (&JobStatus{Status: JobSucceeded}).Done())
	assert.True(t, (&JobStatus{Status: JobFailed}).Done())
}

func TestMapResponse_JSONShape(t *testing.T) {
	resp := MapResponse{
		Map:     MapRecord{ID: "m1", Kind: KindFingerprint, Probe: "CCN", Weights: []float64{0.5, -1, 0}},
		Image:   []byte{0x89, 'P', 'N', 'G'},
		Nearest: &ReferenceMatch{Reference: Reference{ID: 7, Name: "ethanol", SMILES: "CCO"}, Distance: 0.25},
	}
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "iVBORw==", raw["image"])
	nearest := raw["nearest"].(map[string]interface{})
	assert.Equal(t, "ethanol", nearest["name"])
	assert.Equal(t, 0.25, nearest["distance"])
	assert.Equal(t, false, raw["persisted"])
}

//Personal.AI order the ending
