package tree

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

const (
	leaf = -1

	// Values closer than this are treated as equal when looking for split points.
	featureThreshold = 1e-7
	minImpurity      = 1e-7
)

var ErrEmptyTrainingSet = errors.New("cannot fit a tree on an empty training set")

type Params struct {
	Criterion Criterion `json:"criterion"`
	// MaxDepth of 0 leaves the depth unbounded.
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
}

func (p Params) String() string {
	depth := "none"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("criterion=%s max_depth=%s min_samples_split=%d", p.Criterion, depth, p.MinSamplesSplit)
}

func (p Params) validate() error {
	if _, err := ParseCriterion(string(p.Criterion)); err != nil {
		return err
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	}
	return nil
}

type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Counts    []float64 `json:"counts"`
}

func (n Node) IsLeaf() bool {
	return n.Feature == leaf
}

// Classifier is a binary decision tree stored as a flat node array, node 0 is
// the root. Samples with x[Feature] <= Threshold go to Left.
type Classifier struct {
	Params      Params `json:"params"`
	NumFeatures int    `json:"num_features"`
	NumClasses  int    `json:"num_classes"`
	Nodes       []Node `json:"nodes"`
}

type builder struct {
	params     Params
	x          [][]float64
	y          []int
	numClasses int
	nodes      []Node
}

// Fit grows a tree on rows x with class indexes y in [0, numClasses).
func Fit(x [][]float64, y []int, numClasses int, params Params) (*Classifier, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(x), len(y))
	}

	numFeatures := len(x[0])
	for i, row := range x {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), numFeatures)
		}
		if y[i] < 0 || y[i] >= numClasses {
			return nil, fmt.Errorf("label %d of row %d is outside [0, %d)", y[i], i, numClasses)
		}
	}

	b := &builder{params: params, x: x, y: y, numClasses: numClasses}

	samples := make([]int, len(x))
	for i := range samples {
		samples[i] = i
	}
	b.grow(samples, 0)

	return &Classifier{
		Params:      params,
		NumFeatures: numFeatures,
		NumClasses:  numClasses,
		Nodes:       b.nodes,
	}, nil
}

func (b *builder) counts(samples []int) []float64 {
	counts := make([]float64, b.numClasses)
	for _, i := range samples {
		counts[b.y[i]]++
	}
	return counts
}

func (b *builder) grow(samples []int, depth int) int {
	counts := b.counts(samples)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf, Left: leaf, Right: leaf, Counts: counts})

	n := float64(len(samples))
	impurity := b.params.Criterion.impurity(counts, n)

	if (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) ||
		len(samples) < b.params.MinSamplesSplit ||
		len(samples) < 2 ||
		impurity <= minImpurity {
		return id
	}

	s, ok := b.bestSplit(samples, impurity)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range samples {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	b.nodes[id].Feature = s.feature
	b.nodes[id].Threshold = s.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r

	return id
}

type split struct {
	feature     int
	threshold   float64
	improvement float64
}

// bestSplit scans every feature in order and every boundary between distinct
// sorted values. The first split with the highest impurity decrease wins.
func (b *builder) bestSplit(samples []int, parentImpurity float64) (split, bool) {
	var (
		best  split
		found bool
		n     = float64(len(samples))
		total = b.counts(samples)
	)

	sorted := slices.Clone(samples)
	leftCounts := make([]float64, b.numClasses)
	rightCounts := make([]float64, b.numClasses)

	for f := 0; f < len(b.x[samples[0]]); f++ {
		slices.SortStableFunc(sorted, func(i, j int) int {
			switch vi, vj := b.x[i][f], b.x[j][f]; {
			case vi < vj:
				return -1
			case vi > vj:
				return 1
			}
			return 0
		})

		if b.x[sorted[len(sorted)-1]][f] <= b.x[sorted[0]][f]+featureThreshold {
			continue // constant feature
		}

		for k := range leftCounts {
			leftCounts[k] = 0
		}
		copy(rightCounts, total)

		for pos := 1; pos < len(sorted); pos++ {
			moved := b.y[sorted[pos-1]]
			leftCounts[moved]++
			rightCounts[moved]--

			prev, next := b.x[sorted[pos-1]][f], b.x[sorted[pos]][f]
			if next <= prev+featureThreshold {
				continue
			}

			nl, nr := float64(pos), n-float64(pos)
			childImpurity := (nl*b.params.Criterion.impurity(leftCounts, nl) +
				nr*b.params.Criterion.impurity(rightCounts, nr)) / n
			improvement := parentImpurity - childImpurity

			if !found || improvement > best.improvement {
				threshold := prev/2 + next/2
				if threshold >= next {
					threshold = prev
				}
				best = split{feature: f, threshold: threshold, improvement: improvement}
				found = true
			}
		}
	}

	return best, found
}

func (c *Classifier) leaf(x []float64) Node {
	node := c.Nodes[0]
	for !node.IsLeaf() {
		if x[node.Feature] <= node.Threshold {
			node = c.Nodes[node.Left]
		} else {
			node = c.Nodes[node.Right]
		}
	}
	return node
}

// Predict returns the majority class of the leaf reached by x. Ties go to the
// lowest class index.
func (c *Classifier) Predict(x []float64) int {
	return floats.MaxIdx(c.leaf(x).Counts)
}

// PredictProba returns the class distribution of the leaf reached by x.
func (c *Classifier) PredictProba(x []float64) []float64 {
	counts := c.leaf(x).Counts
	proba := make([]float64, len(counts))
	floats.ScaleTo(proba, 1/floats.Sum(counts), counts)
	return proba
}

func (c *Classifier) Depth() int {
	var depth func(id int) int
	depth = func(id int) int {
		node := c.Nodes[id]
		if node.IsLeaf() {
			return 0
		}
		return 1 + max(depth(node.Left), depth(node.Right))
	}
	return depth(0)
}

// Validate checks the node structure of a deserialized tree.
func (c *Classifier) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range c.Nodes {
		if len(node.Counts) != c.NumClasses {
			return fmt.Errorf("node %d has %d class counts, expected %d", i, len(node.Counts), c.NumClasses)
		}
		if node.IsLeaf() {
			continue
		}
		if node.Feature < 0 || node.Feature >= c.NumFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, node.Feature)
		}
		if node.Left <= i || node.Left >= len(c.Nodes) || node.Right <= i || node.Right >= len(c.Nodes) {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, node.Left, node.Right)
		}
	}
	return nil
}
