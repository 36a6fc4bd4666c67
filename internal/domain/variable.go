// Package domain holds the hydrometeorological types shared across the viewer:
// the per-variable schema, the session selection state and the zonal summary table.
package domain

import (
	"fmt"
	"strings"
)

// Family identifies which ensemble file backs a variable.
type Family string

const (
	// FamilyRouting variables come from the river-routing ensemble output.
	FamilyRouting Family = "routing"
	// FamilySurface variables come from the land-surface ensemble output.
	FamilySurface Family = "surface"
)

// Validate reports whether f is a known family.
func (f Family) Validate() error {
	switch f {
	case FamilyRouting, FamilySurface:
		return nil
	default:
		return fmt.Errorf("unknown dataset family %q", string(f))
	}
}

// Reduction is the spatial statistic applied to the cells inside a region.
type Reduction string

const (
	// ReductionMean averages the cells inside the region.
	ReductionMean Reduction = "mean"
	// ReductionMax keeps the largest cell value inside the region.
	ReductionMax Reduction = "max"
)

// ParseReduction converts a user-supplied string into a Reduction.
func ParseReduction(s string) (Reduction, error) {
	switch Reduction(strings.ToLower(strings.TrimSpace(s))) {
	case ReductionMean, "average", "avg":
		return ReductionMean, nil
	case ReductionMax, "maximum":
		return ReductionMax, nil
	default:
		return "", fmt.Errorf("unknown reduction %q (expected mean or max)", s)
	}
}

// Noun returns the word used in chart titles ("average" or "maximum").
func (r Reduction) Noun() string {
	if r == ReductionMax {
		return "maximum"
	}
	return "average"
}

// Variable describes one selectable model output.
type Variable struct {
	Name       string    `yaml:"name" json:"name"`
	Label      string    `yaml:"label" json:"label"`
	Units      string    `yaml:"units" json:"units,omitempty"`
	Family     Family    `yaml:"family" json:"family"`
	ProfileDim string    `yaml:"profile_dim" json:"profile_dim,omitempty"`
	Reduction  Reduction `yaml:"reduction" json:"reduction"`
}

// HasProfile reports whether the variable carries a soil-layer dimension.
func (v Variable) HasProfile() bool {
	return v.ProfileDim != ""
}

// Profile is one soil layer of the depth-indexed variables.
type Profile struct {
	Index int    `yaml:"index" json:"index"`
	Label string `yaml:"label" json:"label"`
}
