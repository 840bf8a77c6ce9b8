package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"option-trader/internal/model"
)

// Logistic is a local stand-in for the trained model: a logistic regression
// over the named feature set, loaded from a weights file exported alongside
// training.
type Logistic struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// LoadLogistic reads a weights file. Missing feature weights default to zero.
func LoadLogistic(path string) (*Logistic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read weights: %v", model.ErrModel, err)
	}
	var m Logistic
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: parse weights: %v", model.ErrModel, err)
	}
	return &m, nil
}

func (m *Logistic) Predict(fv model.FeatureVector) (float64, error) {
	vec := fv.ToVector()
	z := m.Bias
	for i, name := range model.FeatureNames {
		z += m.Weights[name] * vec[i]
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, fmt.Errorf("%w: non-finite activation", model.ErrModel)
	}
	return 1 / (1 + math.Exp(-z)), nil
}
