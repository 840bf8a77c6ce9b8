// Package predictor provides the probability model behind the signal
// classifier: a single scalar in [0,1] meaning "probability of an upward
// outcome" for the bar described by a feature vector.
package predictor

import (
	"option-trader/internal/model"
)

type Predictor interface {
	Predict(fv model.FeatureVector) (float64, error)
}
