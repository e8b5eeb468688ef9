package risk

import (
	"math"
	"sort"
)

// node is a tree node. Leaves carry a weight already scaled by the
// learning rate; inner nodes send x[feature] < threshold to the left child.
type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      int
	right     int
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.nodes[i]
		if n.leaf {
			return n.value
		}
		if x[n.feature] < n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// treeBuilder grows one regression tree on first and second order
// gradients using exact greedy split search.
type treeBuilder struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params Params
	nodes  []node
}

func buildTree(x [][]float64, grad, hess []float64, rows []int, p Params) tree {
	b := &treeBuilder{x: x, grad: grad, hess: hess, params: p}
	b.grow(rows, 0)
	return tree{nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{})

	var g, h float64
	for _, r := range rows {
		g += b.grad[r]
		h += b.hess[r]
	}

	if depth < b.params.MaxDepth {
		if s, ok := b.bestSplit(rows, g, h); ok {
			left := make([]int, 0, len(rows))
			right := make([]int, 0, len(rows))
			for _, r := range rows {
				if b.x[r][s.feature] < s.threshold {
					left = append(left, r)
				} else {
					right = append(right, r)
				}
			}
			l := b.grow(left, depth+1)
			rr := b.grow(right, depth+1)
			b.nodes[id] = node{feature: s.feature, threshold: s.threshold, left: l, right: rr}
			return id
		}
	}

	b.nodes[id] = node{leaf: true, value: b.leafWeight(g, h)}
	return id
}

func (b *treeBuilder) leafWeight(g, h float64) float64 {
	return -g / (h + b.params.Lambda) * b.params.LearningRate
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (b *treeBuilder) bestSplit(rows []int, g, h float64) (split, bool) {
	lambda := b.params.Lambda
	parent := g * g / (h + lambda)

	best := split{gain: math.Inf(-1)}
	found := false
	order := make([]int, len(rows))
	nFeatures := len(b.x[rows[0]])

	for f := 0; f < nFeatures; f++ {
		copy(order, rows)
		sort.SliceStable(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })

		var gl, hl float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			gl += b.grad[r]
			hl += b.hess[r]

			cur, next := b.x[r][f], b.x[order[i+1]][f]
			if cur == next {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < b.params.MinChildWeight || hr < b.params.MinChildWeight {
				continue
			}
			gain := 0.5*(gl*gl/(hl+lambda)+gr*gr/(hr+lambda)-parent) - b.params.Gamma
			if gain > best.gain {
				best = split{feature: f, threshold: (cur + next) / 2, gain: gain}
				found = true
			}
		}
	}

	if !found || best.gain <= 0 {
		return split{}, false
	}
	return best, true
}
