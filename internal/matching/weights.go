package matching

import (
	"fmt"
	"math"
)

// Weights are the combiner coefficients. Skills, Experience and Track weigh
// the top-level factors; Similarity and Overlap blend the skill factor when
// an embedding signal is present.
type Weights struct {
	Skills     float64 `mapstructure:"skills" json:"skills"`
	Experience float64 `mapstructure:"experience" json:"experience"`
	Track      float64 `mapstructure:"track" json:"track"`
	Similarity float64 `mapstructure:"similarity" json:"similarity"`
	Overlap    float64 `mapstructure:"overlap" json:"overlap"`
}

// DefaultWeights reproduces the established 60/20/20 and 40/60 scheme.
func DefaultWeights() Weights {
	return Weights{
		Skills:     0.6,
		Experience: 0.2,
		Track:      0.2,
		Similarity: 0.4,
		Overlap:    0.6,
	}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"skills":     w.Skills,
		"experience": w.Experience,
		"track":      w.Track,
		"similarity": w.Similarity,
		"overlap":    w.Overlap,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative number, got %v", name, v)
		}
	}
	return nil
}
