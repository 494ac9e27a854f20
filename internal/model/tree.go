package model

import (
	"math"
	"sort"
)

// treeNode is one node of a regression tree, stored flat. Leaf nodes have
// Left == -1 and carry the output weight in Value.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// tree is a single boosted regression tree over raw log-odds.
type tree struct {
	Nodes []treeNode
}

// predict walks the tree for one feature vector. Missing values (NaN) take
// the right branch, matching the comparison semantics used when splitting.
func (t *tree) predict(x []float64) float64 {
	i := 0
	for t.Nodes[i].Left >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// treeBuilder grows one tree greedily from per-sample gradient statistics.
// Gain and leaf weights follow the second-order formulation: for a node
// with gradient sum G and hessian sum H, the optimal weight is
// -G/(H+lambda) and splitting gains 0.5*(GL^2/(HL+l) + GR^2/(HR+l) -
// G^2/(H+l)) - gamma.
type treeBuilder struct {
	x        [][]float64
	grad     []float64
	hess     []float64
	params   Params
	features []int

	// gainByFeature accumulates realized split gains for importance
	// ranking, indexed by original feature position.
	gainByFeature []float64

	nodes []treeNode
}

func (b *treeBuilder) build(indices []int) tree {
	b.nodes = b.nodes[:0]
	b.grow(indices, 0)
	return tree{Nodes: append([]treeNode(nil), b.nodes...)}
}

// grow appends the subtree for the given samples and returns its root index.
func (b *treeBuilder) grow(indices []int, depth int) int {
	var g, h float64
	for _, i := range indices {
		g += b.grad[i]
		h += b.hess[i]
	}

	if depth >= b.params.MaxDepth || len(indices) < 2 || h < 2*b.params.MinChildWeight {
		return b.leaf(g, h)
	}

	feature, threshold, gain, ok := b.bestSplit(indices, g, h)
	if !ok {
		return b.leaf(g, h)
	}
	b.gainByFeature[feature] += gain

	left := make([]int, 0, len(indices))
	right := make([]int, 0, len(indices))
	for _, i := range indices {
		if b.x[i][feature] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: feature, Threshold: threshold})
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) leaf(g, h float64) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{
		Left:  -1,
		Right: -1,
		Value: leafWeight(g, h, b.params),
	})
	return idx
}

// bestSplit scans every candidate feature with an exact sorted sweep.
func (b *treeBuilder) bestSplit(indices []int, g, h float64) (feature int, threshold, gain float64, ok bool) {
	lambda := b.params.RegLambda
	parentScore := g * g / (h + lambda)
	bestGain := 0.0

	sorted := make([]int, len(indices))
	for _, f := range b.features {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})

		var gl, hl float64
		for i := 0; i < len(sorted)-1; i++ {
			gl += b.grad[sorted[i]]
			hl += b.hess[sorted[i]]

			cur, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if cur == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}

			split := 0.5*(gl*gl/(hl+lambda)+gr*gr/(hr+lambda)-parentScore) - b.params.Gamma
			if split > bestGain {
				bestGain = split
				feature = f
				threshold = cur + (next-cur)/2
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

// leafWeight applies L1 soft-thresholding to the gradient sum before the
// usual second-order weight.
func leafWeight(g, h float64, p Params) float64 {
	switch {
	case g > p.RegAlpha:
		g -= p.RegAlpha
	case g < -p.RegAlpha:
		g += p.RegAlpha
	default:
		return 0
	}
	return -g / (h + p.RegLambda)
}

// sigmoid maps a log-odds margin to a probability.
func sigmoid(margin float64) float64 {
	return 1 / (1 + math.Exp(-margin))
}
