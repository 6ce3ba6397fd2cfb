package matching

import (
	"math"

	"github.com/spigell/jobmatch/internal/profile"
)

// Inputs are everything the combiner needs for one pair.
type Inputs struct {
	// Similarity in [0,1]; 0 means no embedding signal.
	Similarity     float64
	Overlap        SkillOverlap
	CandidateLevel profile.ExperienceLevel
	JobLevel       profile.ExperienceLevel
	CandidateTrack string
	JobTrack       string
}

// Score is the combined outcome.
type Score struct {
	Value      float64
	Percentage int
}

// Combiner merges skill, experience and track signals into one bounded score.
type Combiner struct {
	weights Weights
}

// NewCombiner returns a combiner using w.
func NewCombiner(w Weights) *Combiner {
	return &Combiner{weights: w}
}

// Weights returns the coefficients in use.
func (c *Combiner) Weights() Weights {
	return c.weights
}

type factorValues struct {
	overlap    float64
	similarity float64
	blended    float64
	experience float64
	track      float64
	final      float64
}

// factors is the single source of the scoring arithmetic. Combine and
// Breakdown both read from it.
func (c *Combiner) factors(in Inputs) factorValues {
	w := c.weights
	f := factorValues{
		overlap:    in.Overlap.Score(),
		similarity: clamp(in.Similarity, 0, 1),
		experience: ExperienceScore(in.CandidateLevel, in.JobLevel),
		track:      TrackScore(in.CandidateTrack, in.JobTrack),
	}

	f.blended = f.overlap
	if f.similarity > 0 {
		f.blended = w.Similarity*f.similarity + w.Overlap*f.overlap
	}

	f.final = clamp(w.Skills*f.blended+w.Experience*f.experience+w.Track*f.track, 0, 1)
	return f
}

// Combine scores one pair.
func (c *Combiner) Combine(in Inputs) Score {
	f := c.factors(in)
	return Score{Value: f.final, Percentage: percentage(f.final)}
}

// ExperienceScore grades how far the candidate sits below the job's level.
// Unknown levels on either side score as the widest gap.
func ExperienceScore(candidate, job profile.ExperienceLevel) float64 {
	if !candidate.Known() || !job.Known() {
		return 0.1
	}

	switch gap := job - candidate; {
	case gap <= 0:
		return 1.0
	case gap == 1:
		return 0.7
	case gap == 2:
		return 0.4
	default:
		return 0.1
	}
}

// TrackScore is 1 when both tracks are set and equal ignoring case.
func TrackScore(candidate, job string) float64 {
	if profile.SameTrack(candidate, job) {
		return 1
	}
	return 0
}

func percentage(score float64) int {
	return int(math.Round(score * 100))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
