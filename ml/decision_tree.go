package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// RegressionTree is a fitted tree stored as a flat node list. Node 0 is the root.
type RegressionTree struct {
	nodes     []TreeNode
	nFeatures int
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx" yaml:"feature_idx"`
	Threshold  float64 `json:"threshold" yaml:"threshold"`
	LeftChild  int     `json:"left_child" yaml:"left_child"`
	RightChild int     `json:"right_child" yaml:"right_child"`
	Value      float64 `json:"value" yaml:"value"`
	IsLeaf     bool    `json:"is_leaf" yaml:"is_leaf"`
}

func NewRegressionTree(nodes []TreeNode, nFeatures int) (*RegressionTree, error) {
	if len(nodes) == 0 {
		return nil, ErrNotFitted
	}
	if nFeatures < 0 {
		return nil, errors.New("n_features must not be negative")
	}
	return &RegressionTree{nodes: append([]TreeNode(nil), nodes...), nFeatures: nFeatures}, nil
}

func (rt *RegressionTree) Predict(x mat.Matrix) ([]float64, error) {
	rows, cols := x.Dims()
	if rt.nFeatures > 0 && cols != rt.nFeatures {
		return nil, fmt.Errorf("%w: got %d inputs, tree expects %d", ErrDimension, cols, rt.nFeatures)
	}
	out := make([]float64, rows)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		v, err := rt.predictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (rt *RegressionTree) predictRow(features []float64) (float64, error) {
	idx := 0
	// a well-formed tree reaches a leaf in at most len(nodes) steps
	for steps := 0; steps <= len(rt.nodes); steps++ {
		node := rt.nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(rt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree contains a cycle")
}

func (rt *RegressionTree) NumFeatures() int {
	return rt.nFeatures
}
