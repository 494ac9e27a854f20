// Package model trains, evaluates, and persists the flood classifier. The
// classifier is a gradient-boosted tree ensemble over the engineered
// temporal features, fit with second-order gradients on logistic loss and
// a positive-class weight to counter the heavy no-flood majority.
package model

import (
	"math/rand"
	"sort"
)

// Params are the boosting hyperparameters. Defaults were tuned on the
// Philippine historical dataset and should rarely need changing.
type Params struct {
	NumTrees        int     `json:"num_trees"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	MinChildWeight  float64 `json:"min_child_weight"`
	Gamma           float64 `json:"gamma"`
	RegAlpha        float64 `json:"reg_alpha"`
	RegLambda       float64 `json:"reg_lambda"`
	Seed            int64   `json:"seed"`
}

// DefaultParams returns the production training configuration.
func DefaultParams() Params {
	return Params{
		NumTrees:        200,
		MaxDepth:        10,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		MinChildWeight:  5,
		Gamma:           0.1,
		RegAlpha:        0.1,
		RegLambda:       1.0,
		Seed:            42,
	}
}

// GBM is a fitted gradient-boosted ensemble. Fields are exported for gob
// persistence; treat a loaded model as read-only.
type GBM struct {
	Params      Params
	Trees       []tree
	Importances []float64 // total split gain per feature, unnormalized
}

// fit trains the ensemble. y must be 0/1; weights scale each sample's
// gradient contribution (the positive-class weight enters here).
func fit(x [][]float64, y, weights []float64, params Params) *GBM {
	n := len(x)
	d := 0
	if n > 0 {
		d = len(x[0])
	}

	rng := rand.New(rand.NewSource(params.Seed))
	margins := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)

	builder := &treeBuilder{
		x:             x,
		grad:          grad,
		hess:          hess,
		params:        params,
		gainByFeature: make([]float64, d),
	}

	m := &GBM{Params: params, Trees: make([]tree, 0, params.NumTrees)}
	for round := 0; round < params.NumTrees; round++ {
		for i := 0; i < n; i++ {
			p := sigmoid(margins[i])
			grad[i] = (p - y[i]) * weights[i]
			hess[i] = p * (1 - p) * weights[i]
		}

		builder.features = sampleK(rng, d, params.ColsampleByTree)
		indices := sampleK(rng, n, params.Subsample)

		t := builder.build(indices)
		m.Trees = append(m.Trees, t)
		for i := 0; i < n; i++ {
			margins[i] += params.LearningRate * t.predict(x[i])
		}
	}
	m.Importances = builder.gainByFeature
	return m
}

// PredictProba returns P(flood) for one feature vector.
func (m *GBM) PredictProba(x []float64) float64 {
	margin := 0.0
	for i := range m.Trees {
		margin += m.Params.LearningRate * m.Trees[i].predict(x)
	}
	return sigmoid(margin)
}

// sampleK draws round(fraction*n) distinct indices, sorted, without
// replacement. fraction >= 1 returns all indices in order.
func sampleK(rng *rand.Rand, n int, fraction float64) []int {
	if fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n)*fraction + 0.5)
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	perm := rng.Perm(n)[:k]
	// Sorted order keeps tree construction deterministic for equal values.
	sort.Ints(perm)
	return perm
}
