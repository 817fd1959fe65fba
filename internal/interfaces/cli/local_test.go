package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightsCmd_Fingerprint(t *testing.T) {
	out, err := run(t, "weights", "--reference", "CCO", "--probe", "CCN", "-o", "json")
	require.NoError(t, err)

	var res struct {
		Weights      []float64 `json:"weights"`
		Standardized []float64 `json:"standardized"`
		Fingerprint  string    `json:"fingerprint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Weights, 3)
	assert.Len(t, res.Standardized, 3)
	assert.NotEmpty(t, res.Fingerprint)
}

func TestWeightsCmd_Table(t *testing.T) {
	out, err := run(t, "weights", "--reference", "CCO", "--probe", "CCN", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "ATOM")
	assert.Contains(t, out, "STANDARDIZED")
}

func TestWeightsCmd_Model(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"intercept":0.1,"coefficients":{"1":0.5,"7":-0.25}}`), 0o644))

	out, err := run(t, "weights", "--probe", "c1ccccc1O", "--model", path, "-o", "json")
	require.NoError(t, err)
	var res struct {
		Weights []float64 `json:"weights"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Weights, 7)
}

func TestWeightsCmd_Errors(t *testing.T) {
	_, err := run(t, "weights", "--reference", "CCO")
	assert.Error(t, err, "probe is required")

	_, err = run(t, "weights", "--reference", "CCO", "--probe", "C1CC")
	assert.Error(t, err, "unclosed ring")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = run(t, "weights", "--probe", "CCO", "--model", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed model file")
}

func TestStandardizeCmd(t *testing.T) {
	out, err := run(t, "standardize", "-o", "json", "--", "2", "-1", "0")
	require.NoError(t, err)
	var res struct {
		Standardized []float64 `json:"standardized"`
		MaxWeight    float64   `json:"max_weight"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []float64{1, -0.5, 0}, res.Standardized)
	assert.Equal(t, 2.0, res.MaxWeight)

	_, err = run(t, "standardize", "x")
	assert.Error(t, err)
}

func TestMapCmd_WritesImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.png")
	stdout, err := run(t, "map", "--reference", "c1ccccc1O", "--probe", "c1ccccc1N", "--out", out, "--format", "png", "--size", "200")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote fingerprint map to "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestMapCmd_SVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "map.svg")
	_, err := run(t, "map", "--reference", "CCO", "--probe", "CCN", "--out", out, "--format", "svg")
	require.NoError(t, err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestMapCmd_RejectsReferenceWithModel(t *testing.T) {
	_, err := run(t, "map", "--reference", "CCO", "--probe", "CCN", "--model", "m.json")
	assert.Error(t, err)
}

//Personal.AI order the ending
