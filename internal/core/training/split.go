package training

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"mpc-backend/internal/core/types"
)

func classCounts(y []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, c := range y {
		counts[c]++
	}
	return counts
}

func presentClasses(counts []int) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// StratifiedSplit partitions the indexes of y into a train and a test set so
// that every class keeps its proportion. The test set holds
// ceil(testFraction*len(y)) samples. Both returned slices are sorted.
func StratifiedSplit(y []int, numClasses int, testFraction float64, seed uint64) (train, test []int, err error) {
	n := len(y)
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: training dataset is empty", types.ErrValidation)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("%w: test fraction must be in (0, 1), got %v", types.ErrValidation, testFraction)
	}

	counts := classCounts(y, numClasses)
	for c, count := range counts {
		if count == 1 {
			return nil, nil, fmt.Errorf("%w: the least populated class '%s' has only 1 member, which is too few for a stratified split",
				types.ErrValidation, types.AnimalTypes[c])
		}
	}

	nTest := int(math.Ceil(testFraction * float64(n)))
	nTrain := n - nTest
	classes := presentClasses(counts)
	if nTest < classes {
		return nil, nil, fmt.Errorf("%w: test size %d should be greater or equal to the number of classes %d", types.ErrValidation, nTest, classes)
	}
	if nTrain < classes {
		return nil, nil, fmt.Errorf("%w: train size %d should be greater or equal to the number of classes %d", types.ErrValidation, nTrain, classes)
	}

	testPerClass := allocate(counts, nTest)

	byClass := make([][]int, numClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	for c, members := range byClass {
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		test = append(test, members[:testPerClass[c]]...)
		train = append(train, members[testPerClass[c]:]...)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// allocate distributes total draws over classes proportionally to counts.
// Floors are assigned first, the remaining draws go to the largest fractional
// parts, lower class index first on ties.
func allocate(counts []int, total int) []int {
	n := 0
	for _, c := range counts {
		n += c
	}

	out := make([]int, len(counts))
	remainders := make([]float64, len(counts))
	assigned := 0
	for c, count := range counts {
		exact := float64(count) * float64(total) / float64(n)
		out[c] = int(math.Floor(exact))
		remainders[c] = exact - float64(out[c])
		assigned += out[c]
	}

	order := make([]int, len(counts))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(remainders[b], remainders[a])
	})

	for _, c := range order {
		if assigned == total {
			break
		}
		if out[c] < counts[c] {
			out[c]++
			assigned++
		}
	}

	return out
}

// StratifiedKFold assigns every sample of y to one of k folds without
// shuffling. Fold sizes per class follow a round robin over the sorted labels,
// and the members of a class fill the folds in input order.
func StratifiedKFold(y []int, numClasses, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: number of folds must be at least 2, got %d", types.ErrValidation, k)
	}
	if k > len(y) {
		return nil, fmt.Errorf("%w: cannot have number of folds %d greater than the number of samples %d", types.ErrValidation, k, len(y))
	}

	counts := classCounts(y, numClasses)
	tooFew := true
	for _, c := range counts {
		if c >= k {
			tooFew = false
		}
	}
	if tooFew {
		return nil, fmt.Errorf("%w: number of folds %d cannot be greater than the number of members in each class", types.ErrValidation, k)
	}

	sorted := slices.Clone(y)
	slices.Sort(sorted)

	// allocation[f][c] is the number of class c samples placed in fold f.
	allocation := make([][]int, k)
	for f := range allocation {
		allocation[f] = make([]int, numClasses)
		for i := f; i < len(sorted); i += k {
			allocation[f][sorted[i]]++
		}
	}

	folds := make([][]int, k)
	next := make([]int, numClasses) // fold currently being filled per class
	for i, c := range y {
		for allocation[next[c]][c] == 0 {
			next[c]++
		}
		folds[next[c]] = append(folds[next[c]], i)
		allocation[next[c]][c]--
	}

	return folds, nil
}
