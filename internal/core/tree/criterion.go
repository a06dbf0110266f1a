package tree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type Criterion string

const (
	Gini    Criterion = "gini"
	Entropy Criterion = "entropy"
)

func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(s); c {
	case Gini, Entropy:
		return c, nil
	default:
		return "", fmt.Errorf("unknown split criterion '%s'", s)
	}
}

// impurity of a node given its per-class sample counts and total.
func (c Criterion) impurity(counts []float64, total float64) float64 {
	if total == 0 {
		return 0
	}
	p := make([]float64, len(counts))
	floats.ScaleTo(p, 1/total, counts)

	switch c {
	case Entropy:
		// stat.Entropy uses the natural log, trees are compared in bits.
		return stat.Entropy(p) / math.Ln2
	default:
		return 1 - floats.Dot(p, p)
	}
}
