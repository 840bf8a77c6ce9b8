package predictor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option-trader/internal/model"
)

func TestService_Predict(t *testing.T) {
	var seen map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		json.NewEncoder(w).Encode(map[string]any{"probability": 0.62})
	}))
	defer srv.Close()

	s := NewService(srv.URL)
	p, err := s.Predict(model.FeatureVector{RSI14: 55.5, BBWidth: 0.002})
	require.NoError(t, err)
	assert.Equal(t, 0.62, p)

	// The request carries the named feature columns.
	assert.Equal(t, 55.5, seen["rsi_14"])
	assert.Equal(t, 0.002, seen["bb_width"])
}

func TestService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"service error field", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"error": "model not loaded"})
		}},
		{"non-200 status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"probability out of range", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"probability": 1.4})
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("{not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewService(srv.URL).Predict(model.FeatureVector{})
			assert.ErrorIs(t, err, model.ErrModel)
		})
	}
}

func TestService_Unreachable(t *testing.T) {
	s := NewService("http://127.0.0.1:1/predict")
	_, err := s.Predict(model.FeatureVector{})
	assert.ErrorIs(t, err, model.ErrModel)
}

func writeWeights(t *testing.T, m Logistic) string {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model_weights.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLogistic_Predict(t *testing.T) {
	path := writeWeights(t, Logistic{
		Bias:    0,
		Weights: map[string]float64{"rsi_14": 0.05},
	})

	m, err := LoadLogistic(path)
	require.NoError(t, err)

	// Bias-only input sits at the midpoint.
	p0, err := m.Predict(model.FeatureVector{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p0, 1e-9)

	// A positively weighted feature pushes the probability up with the input.
	pLow, err := m.Predict(model.FeatureVector{RSI14: 10})
	require.NoError(t, err)
	pHigh, err := m.Predict(model.FeatureVector{RSI14: 80})
	require.NoError(t, err)
	assert.Greater(t, pHigh, pLow)
	assert.Greater(t, pLow, 0.5)
}

func TestLoadLogistic_Errors(t *testing.T) {
	_, err := LoadLogistic(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, model.ErrModel)

	path := filepath.Join(t.TempDir(), "model_weights.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadLogistic(path)
	assert.ErrorIs(t, err, model.ErrModel)
}
