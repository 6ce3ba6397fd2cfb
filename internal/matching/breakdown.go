package matching

import (
	"fmt"
	"math"
	"strings"
)

// Factor is one weighted component of a score.
type Factor struct {
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution int     `json:"contribution"`
}

// Breakdown explains a score. Skills, Experience and Track sum (up to
// rounding) to the match percentage; SkillOverlap and Similarity show how
// the skill factor was blended.
type Breakdown struct {
	Skills     Factor `json:"skills"`
	Experience Factor `json:"experience"`
	Track      Factor `json:"track"`

	SkillOverlap Factor  `json:"skill_overlap"`
	Similarity   *Factor `json:"similarity,omitempty"`

	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// Breakdown recomputes the intermediate values of Combine for display. It
// cannot change the outcome.
func (c *Combiner) Breakdown(in Inputs) *Breakdown {
	w := c.weights
	f := c.factors(in)

	b := &Breakdown{
		Skills:        newFactor(f.blended, w.Skills),
		Experience:    newFactor(f.experience, w.Experience),
		Track:         newFactor(f.track, w.Track),
		SkillOverlap:  newFactor(f.overlap, 1),
		MatchedSkills: append([]string{}, in.Overlap.Matched...),
		MissingSkills: append([]string{}, in.Overlap.Missing...),
	}

	if f.similarity > 0 {
		b.SkillOverlap = newFactor(f.overlap, w.Overlap)
		sim := newFactor(f.similarity, w.Similarity)
		b.Similarity = &sim
	}

	return b
}

func newFactor(score, weight float64) Factor {
	return Factor{
		Score:        score,
		Weight:       weight,
		Contribution: int(math.Round(weight * score * 100)),
	}
}

// String renders the breakdown as an aligned plain-text table.
func (b *Breakdown) String() string {
	var sb strings.Builder
	row := func(name string, f Factor) {
		fmt.Fprintf(&sb, "%-14s score %5.2f  weight %4.2f  contribution %3d\n", name, f.Score, f.Weight, f.Contribution)
	}

	row("skills", b.Skills)
	row("  overlap", b.SkillOverlap)
	if b.Similarity != nil {
		row("  similarity", *b.Similarity)
	}
	row("experience", b.Experience)
	row("track", b.Track)

	fmt.Fprintf(&sb, "matched: %s\n", joinOrNone(b.MatchedSkills))
	fmt.Fprintf(&sb, "missing: %s\n", joinOrNone(b.MissingSkills))
	return sb.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
