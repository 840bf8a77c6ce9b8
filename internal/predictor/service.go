package predictor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"option-trader/internal/model"
)

// Service calls a remote inference endpoint with the named feature set.
type Service struct {
	url    string
	client *http.Client
}

func NewService(url string) *Service {
	return &Service{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type predictResponse struct {
	Probability float64 `json:"probability"`
	Error       string  `json:"error,omitempty"`
}

func (s *Service) Predict(fv model.FeatureVector) (float64, error) {
	payload, err := json.Marshal(fv)
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %v", model.ErrModel, err)
	}

	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrModel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: inference service returned %d", model.ErrModel, resp.StatusCode)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", model.ErrModel, err)
	}
	if out.Error != "" {
		return 0, fmt.Errorf("%w: %s", model.ErrModel, out.Error)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return 0, fmt.Errorf("%w: probability %f out of range", model.ErrModel, out.Probability)
	}
	return out.Probability, nil
}
