package signal

import (
	"fmt"

	"option-trader/internal/model"
	"option-trader/internal/predictor"

	"go.uber.org/zap"
)

// Decision thresholds bracket 0.5 asymmetrically; the dead zone between them
// is deliberate to keep low-edge trades off the book. The regime cutoff
// suppresses trading when the volatility band is effectively flat.
const (
	LowerThreshold = 0.45
	UpperThreshold = 0.52
	RegimeCutoff   = 0.0005

	highBandLow  = 0.40
	highBandHigh = 0.80
	lowBandLow   = 0.45
	lowBandHigh  = 0.75
)

// Classifier turns the latest feature vector into a directional decision.
type Classifier struct {
	model  predictor.Predictor
	logger *zap.Logger
}

func NewClassifier(m predictor.Predictor, logger *zap.Logger) *Classifier {
	return &Classifier{
		model:  m,
		logger: logger,
	}
}

// Classify applies the volatility regime gate and the probability thresholds.
// Inference failures degrade to SKIP; no error escapes.
func (c *Classifier) Classify(fv model.FeatureVector, force bool) model.Decision {
	if !force && fv.BBWidth < RegimeCutoff {
		return model.Decision{
			Action:    model.ActionSkip,
			Rationale: fmt.Sprintf("low volatility (%.6f)", fv.BBWidth),
		}
	}

	proba, err := c.model.Predict(fv)
	if err != nil {
		c.logger.Warn("inference failed, skipping cycle", zap.Error(err))
		return model.Decision{
			Action:    model.ActionSkip,
			Rationale: err.Error(),
		}
	}

	d := model.Decision{Probability: &proba}
	switch {
	case proba <= LowerThreshold:
		d.Action = model.ActionPut
	case proba >= UpperThreshold:
		d.Action = model.ActionCall
	default:
		d.Action = model.ActionSkip
		d.Rationale = "no clear edge"
		return d
	}

	d.Tier = tierFor(proba)
	d.Rationale = fmt.Sprintf("signal %.4f", proba)
	return d
}

// tierFor grades signal confidence for the sizer.
func tierFor(proba float64) model.Tier {
	switch {
	case proba <= highBandLow || proba >= highBandHigh:
		return model.TierHigh
	case proba <= lowBandLow || proba >= lowBandHigh:
		return model.TierLow
	default:
		return model.TierNormal
	}
}
