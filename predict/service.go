// Package predict runs a churn request through the loaded model.
package predict

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"churnpredict/churn"
	"churnpredict/ml"
)

// ErrModelUnavailable is returned when no model was loaded at startup.
var ErrModelUnavailable = errors.New("the prediction model is not loaded")

// Service owns the shared, read-only model for the lifetime of the process.
type Service struct {
	model  ml.Classifier
	cache  *lru.Cache[string, churn.Outcome]
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithCacheSize memoizes up to size outcomes keyed by request. Zero
// disables memoization.
func WithCacheSize(size int) Option {
	return func(s *Service) error {
		if size <= 0 {
			s.cache = nil
			return nil
		}
		cache, err := lru.New[string, churn.Outcome](size)
		if err != nil {
			return fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
		return nil
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

// NewService wraps model, which may be nil when loading failed.
func NewService(model ml.Classifier, opts ...Option) (*Service, error) {
	s := &Service{model: model, logger: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Ready reports whether a model is available.
func (s *Service) Ready() bool {
	return s != nil && s.model != nil
}

// Predict classifies one request and selects the text to show for it.
func (s *Service) Predict(ctx context.Context, req churn.Request) (churn.Outcome, error) {
	if !s.Ready() {
		return churn.Outcome{}, ErrModelUnavailable
	}
	if err := ctx.Err(); err != nil {
		return churn.Outcome{}, err
	}

	key := req.Key()
	if s.cache != nil {
		if outcome, ok := s.cache.Get(key); ok {
			s.logger.Debug("prediction cache hit")
			return cloneOutcome(outcome), nil
		}
	}

	rows := []ml.Record{req.Record()}
	labels, err := s.model.Predict(rows)
	if err != nil {
		return churn.Outcome{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := s.model.PredictProba(rows)
	if err != nil {
		return churn.Outcome{}, fmt.Errorf("predict proba: %w", err)
	}
	if len(labels) != 1 || len(proba) != 1 {
		return churn.Outcome{}, fmt.Errorf("model returned %d labels and %d probability rows for 1 input", len(labels), len(proba))
	}
	if want := len(ml.Classes()); len(proba[0]) != want {
		return churn.Outcome{}, fmt.Errorf("model returned %d class probabilities, want %d", len(proba[0]), want)
	}

	outcome, err := churn.NewOutcome(labels[0], proba[0][1])
	if err != nil {
		return churn.Outcome{}, err
	}
	s.logger.Info("prediction made",
		zap.Int("label", outcome.Label),
		zap.Float64("probability", outcome.Probability),
	)
	if s.cache != nil {
		s.cache.Add(key, cloneOutcome(outcome))
	}
	return outcome, nil
}

func cloneOutcome(o churn.Outcome) churn.Outcome {
	o.Insights = append([]string(nil), o.Insights...)
	return o
}
