package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Artifact format version and estimator kinds.
const (
	ArtifactFormat = "churn-pipeline/v1"

	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
)

// Artifact is the on-disk form of a trained pipeline: the column encoding
// followed by exactly one estimator.
type Artifact struct {
	Format   string          `json:"format"`
	Kind     string          `json:"kind"`
	Classes  []int           `json:"classes"`
	Features []FeatureSpec   `json:"features"`
	Logistic *LogisticParams `json:"logistic,omitempty"`
	Tree     *TreeParams     `json:"tree,omitempty"`
}

// Build validates the artifact and returns the classifier it describes.
func (a *Artifact) Build() (Classifier, error) {
	if a.Format != ArtifactFormat {
		return nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	if want := Classes(); !slices.Equal(a.Classes, want) {
		return nil, fmt.Errorf("expected classes %v, got %v", want, a.Classes)
	}
	encoder, err := NewEncoder(a.Features)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case KindLogisticRegression:
		if a.Logistic == nil {
			return nil, fmt.Errorf("%s artifact without logistic section", a.Kind)
		}
		model, err := NewLogisticRegression(encoder, *a.Logistic)
		if err != nil {
			return nil, err
		}
		return model, nil
	case KindDecisionTree:
		if a.Tree == nil {
			return nil, fmt.Errorf("%s artifact without tree section", a.Kind)
		}
		model, err := NewDecisionTree(encoder, *a.Tree)
		if err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
}

// LoadModel reads and decodes the artifact at path. Every failure comes
// back as an *ArtifactError.
func LoadModel(path string) (Classifier, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, &ArtifactError{Path: path, Err: fmt.Errorf("decode: %w", err)}
	}
	model, err := artifact.Build()
	if err != nil {
		return nil, &ArtifactError{Path: path, Err: err}
	}
	return model, nil
}
