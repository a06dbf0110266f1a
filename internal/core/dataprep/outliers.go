package dataprep

import (
	"log/slog"
	"math"
	"slices"

	"mpc-backend/internal/core/types"
)

const iqrFactor = 1.5

type GroupReport struct {
	AnimalType types.AnimalType
	Original   int
	Kept       int
}

func (g GroupReport) Removed() int {
	return g.Original - g.Kept
}

type Bounds struct {
	Lower, Upper float64
}

func (b Bounds) Contains(x float64) bool {
	return x >= b.Lower && x <= b.Upper
}

// IQRBounds returns [Q1 - 1.5*IQR, Q3 + 1.5*IQR] for the values.
func IQRBounds(values []float64) Bounds {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1

	return Bounds{Lower: q1 - iqrFactor*iqr, Upper: q3 + iqrFactor*iqr}
}

// quantile uses linear interpolation between the closest ranks, the same
// definition pandas applies by default. sorted must be in ascending order.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// GroupByType splits records by label. Groups keep the input order of their
// members and are returned in the order of types.AnimalTypes, empty groups
// are omitted.
func GroupByType(records []types.LabeledRecord) [][]types.LabeledRecord {
	byType := make(map[types.AnimalType][]types.LabeledRecord)
	for _, r := range records {
		byType[r.AnimalType] = append(byType[r.AnimalType], r)
	}

	groups := make([][]types.LabeledRecord, 0, len(byType))
	for _, t := range types.AnimalTypes {
		if g, ok := byType[t]; ok {
			groups = append(groups, g)
		}
	}
	return groups
}

type featureColumn struct {
	name  string
	value func(types.LabeledRecord) float64
}

var outlierColumns = []featureColumn{
	{name: "height", value: func(r types.LabeledRecord) float64 { return r.Height }},
	{name: "weight", value: func(r types.LabeledRecord) float64 { return r.Weight }},
}

// RemoveOutliers drops, within each animal type, records whose height or
// weight falls outside the IQR bounds of that group. Bounds for every column
// are computed on the unfiltered group, the column filters are then applied
// one after the other.
func RemoveOutliers(records []types.LabeledRecord) ([]types.LabeledRecord, []GroupReport) {
	var (
		out     = make([]types.LabeledRecord, 0, len(records))
		reports []GroupReport
	)

	for _, group := range GroupByType(records) {
		kept := group
		for _, col := range outlierColumns {
			values := make([]float64, len(group))
			for i, r := range group {
				values[i] = col.value(r)
			}
			bounds := IQRBounds(values)

			kept = slices.DeleteFunc(slices.Clone(kept), func(r types.LabeledRecord) bool {
				return !bounds.Contains(col.value(r))
			})
		}

		report := GroupReport{AnimalType: group[0].AnimalType, Original: len(group), Kept: len(kept)}
		slog.Info("removed outliers", "animal_type", report.AnimalType, "removed", report.Removed(), "kept", report.Kept, "original", report.Original)

		reports = append(reports, report)
		out = append(out, kept...)
	}

	return out, reports
}
