package ml

import (
	"errors"
	"fmt"
)

// Feature encodings.
const (
	FeatureOneHot  = "onehot"
	FeatureNumeric = "numeric"
)

// FeatureSpec describes how one record column becomes part of the dense
// input vector.
type FeatureSpec struct {
	Column     string   `json:"column"`
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
	Mean       float64  `json:"mean,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
}

func (f FeatureSpec) width() int {
	if f.Type == FeatureOneHot {
		return len(f.Categories)
	}
	return 1
}

// Encoder turns records into dense vectors. Columns that no spec names are
// ignored.
type Encoder struct {
	specs []FeatureSpec
	width int
}

// NewEncoder validates specs and fixes the column order of the vector.
func NewEncoder(specs []FeatureSpec) (*Encoder, error) {
	if len(specs) == 0 {
		return nil, errors.New("no features declared")
	}
	seen := make(map[string]bool, len(specs))
	width := 0
	for _, spec := range specs {
		if spec.Column == "" {
			return nil, errors.New("feature with empty column name")
		}
		if seen[spec.Column] {
			return nil, fmt.Errorf("feature %q declared twice", spec.Column)
		}
		seen[spec.Column] = true
		switch spec.Type {
		case FeatureOneHot:
			if len(spec.Categories) == 0 {
				return nil, fmt.Errorf("feature %q has no categories", spec.Column)
			}
		case FeatureNumeric:
		default:
			return nil, fmt.Errorf("feature %q has unsupported type %q", spec.Column, spec.Type)
		}
		width += spec.width()
	}
	return &Encoder{specs: specs, width: width}, nil
}

// Width is the length of every encoded vector.
func (e *Encoder) Width() int {
	return e.width
}

// Encode maps one record to its dense vector. Every declared column must
// be present.
func (e *Encoder) Encode(record Record) ([]float64, error) {
	vector := make([]float64, 0, e.width)
	for _, spec := range e.specs {
		raw, ok := record[spec.Column]
		if !ok {
			return nil, fmt.Errorf("missing column %q", spec.Column)
		}
		switch spec.Type {
		case FeatureOneHot:
			value, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("column %q: expected string, got %T", spec.Column, raw)
			}
			// Unknown categories encode as all zeros.
			for _, category := range spec.Categories {
				if category == value {
					vector = append(vector, 1)
				} else {
					vector = append(vector, 0)
				}
			}
		case FeatureNumeric:
			value, err := toFloat(raw)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", spec.Column, err)
			}
			scale := spec.Scale
			if scale == 0 {
				scale = 1
			}
			vector = append(vector, (value-spec.Mean)/scale)
		}
	}
	return vector, nil
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
