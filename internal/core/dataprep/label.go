package dataprep

import "mpc-backend/internal/core/types"

const elephantMinWeight = 1500

// Label derives the animal type of a record. The rules are evaluated in order
// and the first match wins. ok is false for records that cannot belong to any
// of the known animals, these are dropped before training.
func Label(r types.FeatureRecord) (label types.AnimalType, ok bool) {
	switch {
	case r.Legs != 2 && r.Legs != 4:
		return "", false
	case r.Legs == 4 && r.HasWings:
		return "", false
	case !r.HasTail:
		return "", false
	case r.Legs == 2 && r.HasWings:
		return types.Chicken, true
	case r.Legs == 2:
		return types.Kangaroo, true
	case r.Weight >= elephantMinWeight:
		return types.Elephant, true
	default:
		return types.Dog, true
	}
}

// LabelAll labels every record and drops the ones that cannot be labeled,
// preserving the input order.
func LabelAll(records []types.FeatureRecord) []types.LabeledRecord {
	labeled := make([]types.LabeledRecord, 0, len(records))
	for _, r := range records {
		if label, ok := Label(r); ok {
			labeled = append(labeled, types.LabeledRecord{FeatureRecord: r, AnimalType: label})
		}
	}
	return labeled
}
