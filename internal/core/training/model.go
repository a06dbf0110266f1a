package training

import (
	"encoding/json"
	"fmt"
	"slices"

	"mpc-backend/internal/core/tree"
	"mpc-backend/internal/core/types"
)

const ModelType = "DecisionTreeClassifier"

// Model is a trained classifier together with the feature and class layout it
// was fit with.
type Model struct {
	Type     string             `json:"model_type"`
	Features []string           `json:"features"`
	Classes  []types.AnimalType `json:"classes"`
	Params   tree.Params        `json:"params"`
	CVScore  float64            `json:"cv_score"`
	Tree     *tree.Classifier   `json:"tree"`
}

func newModel(clf *tree.Classifier, params tree.Params, cvScore float64) *Model {
	return &Model{
		Type:     ModelType,
		Features: types.FeatureNames[:],
		Classes:  slices.Clone(types.AnimalTypes),
		Params:   params,
		CVScore:  cvScore,
		Tree:     clf,
	}
}

func (m *Model) PredictOne(record types.FeatureRecord) types.AnimalType {
	return m.Classes[m.Tree.Predict(record.Vector())]
}

func (m *Model) Predict(records []types.FeatureRecord) []types.AnimalType {
	out := make([]types.AnimalType, len(records))
	for i, r := range records {
		out[i] = m.PredictOne(r)
	}
	return out
}

func (m *Model) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

func UnmarshalModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error decoding model: %w", err)
	}

	if m.Type != ModelType {
		return nil, fmt.Errorf("unsupported model type '%s'", m.Type)
	}
	if m.Tree == nil {
		return nil, fmt.Errorf("model has no tree")
	}
	if err := m.Tree.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model tree: %w", err)
	}
	if len(m.Classes) != m.Tree.NumClasses || m.Tree.NumFeatures != types.NumFeatures {
		return nil, fmt.Errorf("model layout (%d classes, %d features) does not match tree (%d classes, %d features)",
			len(m.Classes), types.NumFeatures, m.Tree.NumClasses, m.Tree.NumFeatures)
	}

	return &m, nil
}

// encode converts records into the feature matrix and class indexes used by
// the tree.
func encode(records []types.LabeledRecord) ([][]float64, []int, error) {
	x := make([][]float64, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		idx := slices.Index(types.AnimalTypes, r.AnimalType)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: record %d has unknown animal type '%s'", types.ErrValidation, i, r.AnimalType)
		}
		x[i] = r.Vector()
		y[i] = idx
	}
	return x, y, nil
}
