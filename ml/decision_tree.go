package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary classification tree.
type DecisionTree struct {
	encoder *Encoder
	nodes   []TreeNode
}

// TreeNode is one entry of a flattened tree. Value holds per-class sample
// counts (or weights) and is only read on leaves.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

// TreeParams holds the nodes of a tree, root first.
type TreeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// NewDecisionTree validates the node layout before any walk.
func NewDecisionTree(encoder *Encoder, params TreeParams) (*DecisionTree, error) {
	if encoder == nil {
		return nil, errors.New("encoder is required")
	}
	if len(params.Nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	for i, node := range params.Nodes {
		if node.IsLeaf {
			if len(node.Value) != len(Classes()) {
				return nil, fmt.Errorf("leaf %d: expected %d class values, got %d", i, len(Classes()), len(node.Value))
			}
			for _, v := range node.Value {
				if v < 0 {
					return nil, fmt.Errorf("leaf %d: negative class value %v", i, v)
				}
			}
			if sum(node.Value) <= 0 {
				return nil, fmt.Errorf("leaf %d: class values sum to zero", i)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= encoder.Width() {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// Children always follow their parent in the flattened layout, so
		// this also rules out cycles.
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(params.Nodes) {
				return nil, fmt.Errorf("node %d: invalid child index %d", i, child)
			}
		}
	}
	return &DecisionTree{encoder: encoder, nodes: params.Nodes}, nil
}

// Predict returns the majority class of each row's leaf.
func (dt *DecisionTree) Predict(rows []Record) ([]int, error) {
	proba, err := dt.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		// Ties resolve to the lower class.
		if p[1] > p[0] {
			labels[i] = 1
		}
	}
	return labels, nil
}

// PredictProba returns the normalised class weights of each row's leaf.
func (dt *DecisionTree) PredictProba(rows []Record) ([][]float64, error) {
	result := make([][]float64, len(rows))
	for i, row := range rows {
		x, err := dt.encoder.Encode(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		leaf := dt.leafFor(x)
		total := sum(leaf.Value)
		p := make([]float64, len(leaf.Value))
		for j, v := range leaf.Value {
			p[j] = v / total
		}
		result[i] = p
	}
	return result, nil
}

func (dt *DecisionTree) leafFor(x []float64) TreeNode {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node
		}
		if x[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
