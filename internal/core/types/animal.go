package types

type AnimalType string

const (
	Chicken  AnimalType = "chicken"
	Dog      AnimalType = "dog"
	Elephant AnimalType = "elephant"
	Kangaroo AnimalType = "kangaroo"
)

// AnimalTypes lists every label in ascending order. Grouping, class indexes
// and stratification all follow this order.
var AnimalTypes = []AnimalType{Chicken, Dog, Elephant, Kangaroo}

func (a AnimalType) Valid() bool {
	switch a {
	case Chicken, Dog, Elephant, Kangaroo:
		return true
	}
	return false
}

type FeatureRecord struct {
	Height   float64 `json:"height"`
	Weight   float64 `json:"weight"`
	Legs     int     `json:"walks_on_n_legs"`
	HasWings bool    `json:"has_wings"`
	HasTail  bool    `json:"has_tail"`
}

// NumFeatures is the width of the vector returned by FeatureRecord.Vector.
const NumFeatures = 5

var FeatureNames = [NumFeatures]string{"height", "weight", "walks_on_n_legs", "has_wings", "has_tail"}

func (r FeatureRecord) Vector() []float64 {
	return []float64{r.Height, r.Weight, float64(r.Legs), boolToFloat(r.HasWings), boolToFloat(r.HasTail)}
}

type LabeledRecord struct {
	FeatureRecord
	AnimalType AnimalType `json:"animal_type"`
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
