package dataprep

import (
	"context"
	"fmt"
	"log/slog"

	"mpc-backend/internal/core/types"
)

type Generator interface {
	Generate(ctx context.Context, seed int64, count int) ([]types.FeatureRecord, error)
}

type Dataset struct {
	Records []types.LabeledRecord
	Reports []GroupReport
	// Dropped is the number of input records that could not be labeled.
	Dropped int
}

// Prepare labels the records, drops the unlabeled ones and removes per-type
// outliers.
func Prepare(records []types.FeatureRecord) Dataset {
	labeled := LabelAll(records)
	cleaned, reports := RemoveOutliers(labeled)

	slog.Info("prepared training data", "input", len(records), "labeled", len(labeled), "output", len(cleaned))

	return Dataset{
		Records: cleaned,
		Reports: reports,
		Dropped: len(records) - len(labeled),
	}
}

type Pipeline struct {
	generator Generator
}

func NewPipeline(generator Generator) *Pipeline {
	return &Pipeline{generator: generator}
}

// FromGenerator fetches count synthetic records for the seed and prepares them.
func (p *Pipeline) FromGenerator(ctx context.Context, seed int64, count int) (Dataset, error) {
	if count <= 0 {
		return Dataset{}, fmt.Errorf("%w: number of datapoints must be greater than 0, got %d", types.ErrValidation, count)
	}

	records, err := p.generator.Generate(ctx, seed, count)
	if err != nil {
		return Dataset{}, fmt.Errorf("error fetching synthetic data: %w", err)
	}

	return Prepare(records), nil
}

// FromRecords prepares previously stored records. Stored labels are discarded
// and derived again with Label.
func (p *Pipeline) FromRecords(records []types.LabeledRecord) Dataset {
	features := make([]types.FeatureRecord, len(records))
	for i, r := range records {
		features[i] = r.FeatureRecord
	}
	return Prepare(features)
}
