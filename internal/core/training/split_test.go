package training_test

import (
	"testing"

	"mpc-backend/internal/core/training"
	"mpc-backend/internal/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(counts ...int) []int {
	var y []int
	for c, n := range counts {
		for i := 0; i < n; i++ {
			y = append(y, c)
		}
	}
	return y
}

func TestStratifiedSplit(t *testing.T) {
	y := labels(10, 5, 5, 0)

	train, test, err := training.StratifiedSplit(y, 4, 0.2, 42)
	require.NoError(t, err)

	assert.Len(t, test, 4)
	assert.Len(t, train, 16)

	testCounts := make([]int, 4)
	for _, i := range test {
		testCounts[y[i]]++
	}
	assert.Equal(t, []int{2, 1, 1, 0}, testCounts)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "index %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, len(y))

	train2, test2, err := training.StratifiedSplit(y, 4, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestStratifiedSplit_Errors(t *testing.T) {
	_, _, err := training.StratifiedSplit(labels(10, 1), 4, 0.2, 42)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, _, err = training.StratifiedSplit(labels(2, 2), 4, 0.2, 42)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, _, err = training.StratifiedSplit(nil, 4, 0.2, 42)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestStratifiedKFold(t *testing.T) {
	y := labels(5, 5)

	folds, err := training.StratifiedKFold(y, 2, 5)
	require.NoError(t, err)
	require.Len(t, folds, 5)
	for f, fold := range folds {
		assert.Equal(t, []int{f, f + 5}, fold)
	}
}

func TestStratifiedKFold_UnevenClasses(t *testing.T) {
	y := []int{1, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 1}

	folds, err := training.StratifiedKFold(y, 2, 3)
	require.NoError(t, err)

	total := 0
	for _, fold := range folds {
		ones := 0
		for _, i := range fold {
			if y[i] == 1 {
				ones++
			}
		}
		assert.Len(t, fold, 4)
		assert.Contains(t, []int{1, 2}, ones)
		total += len(fold)
	}
	assert.Equal(t, len(y), total)
}

func TestStratifiedKFold_Errors(t *testing.T) {
	_, err := training.StratifiedKFold(labels(2, 2), 2, 5)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = training.StratifiedKFold(labels(3, 3, 3), 3, 4)
	assert.ErrorIs(t, err, types.ErrValidation)
}
