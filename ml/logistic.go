package ml

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is used when an artifact leaves the threshold unset.
const DefaultThreshold = 0.5

// LogisticParams are the fitted weights of a logistic regression. A nil
// Threshold means DefaultThreshold.
type LogisticParams struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    *float64  `json:"threshold,omitempty"`
}

// LogisticRegression scores encoded records with a single linear layer
// and a sigmoid.
type LogisticRegression struct {
	encoder   *Encoder
	params    LogisticParams
	threshold float64
}

// NewLogisticRegression checks params against the encoder width.
func NewLogisticRegression(encoder *Encoder, params LogisticParams) (*LogisticRegression, error) {
	if encoder == nil {
		return nil, errors.New("encoder is required")
	}
	if len(params.Coefficients) != encoder.Width() {
		return nil, fmt.Errorf("coefficient count %d does not match encoded width %d", len(params.Coefficients), encoder.Width())
	}
	threshold := DefaultThreshold
	if params.Threshold != nil {
		threshold = *params.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0, 1]", threshold)
	}
	return &LogisticRegression{encoder: encoder, params: params, threshold: threshold}, nil
}

// Predict labels a row 1 when its churn probability reaches the threshold.
func (m *LogisticRegression) Predict(rows []Record) ([]int, error) {
	proba, err := m.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p[1] >= m.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns [1-p, p] per row.
func (m *LogisticRegression) PredictProba(rows []Record) ([][]float64, error) {
	result := make([][]float64, len(rows))
	for i, row := range rows {
		x, err := m.encoder.Encode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		z := m.params.Intercept
		for j, w := range m.params.Coefficients {
			z += w * x[j]
		}
		p1 := sigmoid(z)
		result[i] = []float64{1 - p1, p1}
	}
	return result, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
