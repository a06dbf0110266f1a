package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"mpc-backend/internal/core/tree"
	"mpc-backend/internal/core/types"
	"mpc-backend/internal/core/utils"
)

type Config struct {
	TestFraction float64
	Folds        int
	Seed         uint64
	// MetricPlaces is the number of decimals reported metrics are rounded to.
	MetricPlaces int
	Grid         ParamGrid
	Workers      int
	// OnCandidate, if set, is called after each grid candidate is scored. It
	// may be called from several goroutines.
	OnCandidate func(params tree.Params, score float64)
}

func DefaultConfig() Config {
	return Config{
		TestFraction: 0.2,
		Folds:        5,
		Seed:         42,
		MetricPlaces: 4,
		Grid:         DefaultParamGrid(),
		Workers:      runtime.NumCPU(),
	}
}

type Trainer struct {
	cfg Config
}

func NewTrainer(cfg Config) *Trainer {
	return &Trainer{cfg: cfg}
}

func (t *Trainer) NumCandidates() int {
	candidates, _ := t.cfg.Grid.Candidates()
	return len(candidates)
}

type SearchResult struct {
	Params tree.Params
	Score  float64
}

// Train splits the records into train and test sets, grid searches tree
// parameters with cross validation on the train set, refits the best
// candidate and evaluates it on the test set.
func (t *Trainer) Train(ctx context.Context, records []types.LabeledRecord) (*Model, Metrics, error) {
	start := time.Now()
	numClasses := len(types.AnimalTypes)

	x, y, err := encode(records)
	if err != nil {
		return nil, Metrics{}, err
	}

	trainIdx, testIdx, err := StratifiedSplit(y, numClasses, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, Metrics{}, err
	}
	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	best, err := t.search(ctx, xTrain, yTrain, numClasses)
	if err != nil {
		return nil, Metrics{}, err
	}

	clf, err := tree.Fit(xTrain, yTrain, numClasses, best.Params)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("error fitting final model: %w", err)
	}

	yPred := make([]int, len(xTest))
	for i, row := range xTest {
		yPred[i] = clf.Predict(row)
	}
	metrics := Evaluate(yTest, yPred, numClasses).Rounded(t.cfg.MetricPlaces)

	slog.Info("model trained", "params", best.Params.String(), "cv_f1", best.Score,
		"train_size", len(trainIdx), "test_size", len(testIdx), "accuracy", metrics.Accuracy,
		"f1_score", metrics.F1Score, "duration", time.Since(start))

	return newModel(clf, best.Params, best.Score), metrics, nil
}

// search scores every grid candidate by mean macro F1 over stratified folds.
// The highest mean wins and ties go to the earliest candidate.
func (t *Trainer) search(ctx context.Context, x [][]float64, y []int, numClasses int) (SearchResult, error) {
	candidates, err := t.cfg.Grid.Candidates()
	if err != nil {
		return SearchResult{}, err
	}

	folds, err := StratifiedKFold(y, numClasses, t.cfg.Folds)
	if err != nil {
		return SearchResult{}, err
	}

	scores := make([]float64, len(candidates))
	var errs []error

	score := func(ctx context.Context, params tree.Params) (float64, error) {
		s, err := crossValidate(x, y, numClasses, folds, params)
		if err == nil && t.cfg.OnCandidate != nil {
			t.cfg.OnCandidate(params, s)
		}
		return s, err
	}

	for res := range utils.RunInPool(ctx, score, candidates, t.cfg.Workers) {
		if res.Error != nil {
			errs = append(errs, fmt.Errorf("candidate %s: %w", candidates[res.Index], res.Error))
			continue
		}
		scores[res.Index] = res.Result
	}
	if len(errs) > 0 {
		return SearchResult{}, errors.Join(errs...)
	}

	best := 0
	for i, s := range scores {
		slog.Debug("grid candidate scored", "params", candidates[i].String(), "mean_f1", s)
		if s > scores[best] {
			best = i
		}
	}

	return SearchResult{Params: candidates[best], Score: scores[best]}, nil
}

func crossValidate(x [][]float64, y []int, numClasses int, folds [][]int, params tree.Params) (float64, error) {
	inFold := make([]int, len(y))
	for f, members := range folds {
		for _, i := range members {
			inFold[i] = f
		}
	}

	total := 0.0
	for f, members := range folds {
		var trainIdx []int
		for i := range y {
			if inFold[i] != f {
				trainIdx = append(trainIdx, i)
			}
		}
		xTrain, yTrain := subset(x, y, trainIdx)

		clf, err := tree.Fit(xTrain, yTrain, numClasses, params)
		if err != nil {
			return 0, fmt.Errorf("fold %d: %w", f, err)
		}

		xVal, yVal := subset(x, y, members)
		yPred := make([]int, len(xVal))
		for i, row := range xVal {
			yPred[i] = clf.Predict(row)
		}
		total += MacroF1(yVal, yPred, numClasses)
	}

	return total / float64(len(folds)), nil
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i], ys[i] = x[j], y[j]
	}
	return xs, ys
}
