package training

import (
	_ "embed"
	"fmt"

	"mpc-backend/internal/core/tree"

	"gopkg.in/yaml.v2"
)

//go:embed param_grid.yaml
var paramGridYAML []byte

type ParamGrid struct {
	Criterion       []string `yaml:"criterion"`
	MaxDepth        []*int   `yaml:"max_depth"`
	MinSamplesSplit []int    `yaml:"min_samples_split"`
}

func ParseParamGrid(data []byte) (ParamGrid, error) {
	var grid ParamGrid
	if err := yaml.Unmarshal(data, &grid); err != nil {
		return ParamGrid{}, fmt.Errorf("error parsing parameter grid: %w", err)
	}
	if len(grid.Criterion) == 0 || len(grid.MaxDepth) == 0 || len(grid.MinSamplesSplit) == 0 {
		return ParamGrid{}, fmt.Errorf("parameter grid must list at least one value per parameter")
	}
	return grid, nil
}

// DefaultParamGrid is the grid embedded in the binary.
func DefaultParamGrid() ParamGrid {
	grid, err := ParseParamGrid(paramGridYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded parameter grid is invalid: %v", err))
	}
	return grid
}

// Candidates expands the grid. Criterion varies slowest and min_samples_split
// fastest, this order decides ties during the search.
func (g ParamGrid) Candidates() ([]tree.Params, error) {
	var out []tree.Params
	for _, c := range g.Criterion {
		criterion, err := tree.ParseCriterion(c)
		if err != nil {
			return nil, err
		}
		for _, depth := range g.MaxDepth {
			maxDepth := 0
			if depth != nil {
				if *depth <= 0 {
					return nil, fmt.Errorf("max_depth must be positive or null, got %d", *depth)
				}
				maxDepth = *depth
			}
			for _, split := range g.MinSamplesSplit {
				out = append(out, tree.Params{Criterion: criterion, MaxDepth: maxDepth, MinSamplesSplit: split})
			}
		}
	}
	return out, nil
}
