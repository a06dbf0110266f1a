package datagen

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"mpc-backend/internal/core/types"
)

// NoiseRatio is the share of generated records drawn from wide random ranges
// instead of a species profile.
const NoiseRatio = 0.05

type span struct {
	lo, hi float64
}

func (s span) draw(rng *rand.Rand) float64 {
	return s.lo + rng.Float64()*(s.hi-s.lo)
}

type profile struct {
	animal   types.AnimalType
	legs     int
	hasWings bool
	height   span
	weight   span
}

var profiles = []profile{
	{animal: types.Kangaroo, legs: 2, height: span{1.6, 2}, weight: span{40, 90}},
	{animal: types.Elephant, legs: 4, height: span{2.47, 3.36}, weight: span{2600, 6900}},
	{animal: types.Chicken, legs: 2, hasWings: true, height: span{0.15, 0.5}, weight: span{0.037, 4.2}},
	{animal: types.Dog, legs: 4, height: span{0.13, 0.81}, weight: span{0.5, 79}},
}

// Generator produces synthetic animals. The same seed and count always yield
// the same records.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Ping always succeeds, the generator runs in process.
func (g *Generator) Ping(ctx context.Context) error {
	return nil
}

func (g *Generator) Generate(ctx context.Context, seed int64, count int) ([]types.FeatureRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: number of datapoints must be greater than zero, got %d", types.ErrValidation, count)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))

	records := make([]types.FeatureRecord, count)
	noise := 0
	for i := range records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if rng.Float64() < NoiseRatio {
			records[i] = types.FeatureRecord{
				Legs:     1 + rng.IntN(5),
				Height:   span{0, 10}.draw(rng),
				Weight:   span{0, 1000}.draw(rng),
				HasWings: rng.IntN(2) == 1,
				HasTail:  rng.IntN(2) == 1,
			}
			noise++
			continue
		}

		p := profiles[rng.IntN(len(profiles))]
		records[i] = types.FeatureRecord{
			Legs:     p.legs,
			Height:   p.height.draw(rng),
			Weight:   p.weight.draw(rng),
			HasWings: p.hasWings,
			HasTail:  true,
		}
	}

	slog.Info("generated animal data", "number_of_datapoints", count, "seed", seed, "noise", noise)

	return records, nil
}

type Field struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Schema describes the generated records in JSON schema form.
type Schema struct {
	Title      string           `json:"title"`
	Type       string           `json:"type"`
	Properties map[string]Field `json:"properties"`
	Required   []string         `json:"required"`
}

func RecordSchema() Schema {
	return Schema{
		Title: "AnimalCharacteristics",
		Type:  "object",
		Properties: map[string]Field{
			"walks_on_n_legs": {Type: "integer", Title: "Walks on 'n' legs", Description: "The number of legs the animal walks on"},
			"height":          {Type: "number", Title: "Height", Description: "The height of the animal in meters"},
			"weight":          {Type: "number", Title: "Weight", Description: "The weight of the animal in kilograms"},
			"has_wings":       {Type: "boolean", Title: "Has wings?", Description: "Whether the animal has wings"},
			"has_tail":        {Type: "boolean", Title: "Has tail?", Description: "Whether the animal has a tail"},
		},
		Required: []string{"walks_on_n_legs", "height", "weight", "has_wings", "has_tail"},
	}
}
