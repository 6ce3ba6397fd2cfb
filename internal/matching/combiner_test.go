package matching

import (
	"math"
	"strings"
	"testing"

	"github.com/spigell/jobmatch/internal/profile"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCombineExactOnly(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	score := c.Combine(Inputs{
		Overlap:        Overlap([]string{"React", "JS"}, []string{"React", "JS", "Redux"}),
		CandidateLevel: profile.ExperienceMid,
		JobLevel:       profile.ExperienceMid,
		CandidateTrack: "frontend",
		JobTrack:       "Frontend",
	})

	if score.Percentage != 80 {
		t.Fatalf("expected 80%%, got %d (%v)", score.Percentage, score.Value)
	}
	if !approx(score.Value, 0.8) {
		t.Fatalf("expected 0.8, got %v", score.Value)
	}
}

func TestCombineNoRequiredSkills(t *testing.T) {
	c := NewCombiner(DefaultWeights())

	score := c.Combine(Inputs{
		Overlap:        Overlap([]string{"Go"}, nil),
		CandidateLevel: profile.ExperienceSenior,
		JobLevel:       profile.ExperienceJunior,
		CandidateTrack: "backend",
		JobTrack:       "backend",
	})

	if score.Percentage != 40 {
		t.Fatalf("expected 40%%, got %d", score.Percentage)
	}
}

func TestCombineBlendsSimilarity(t *testing.T) {
	c := NewCombiner(DefaultWeights())
	in := Inputs{
		Similarity: 0.9,
		Overlap:    Overlap([]string{"go"}, []string{"go", "rust"}),
	}

	b := c.Breakdown(in)
	if !approx(b.Skills.Score, 0.66) {
		t.Fatalf("expected blended skill score 0.66, got %v", b.Skills.Score)
	}
	if b.Similarity == nil || !approx(b.Similarity.Score, 0.9) {
		t.Fatalf("expected similarity factor 0.9, got %+v", b.Similarity)
	}

	score := c.Combine(in)
	want := 0.6*0.66 + 0.2*0.1
	if !approx(score.Value, want) {
		t.Fatalf("expected %v, got %v", want, score.Value)
	}
}

func TestCombineZeroSimilarityUsesOverlapOnly(t *testing.T) {
	c := NewCombiner(DefaultWeights())
	in := Inputs{Overlap: Overlap([]string{"go"}, []string{"go", "rust"})}

	b := c.Breakdown(in)
	if b.Similarity != nil {
		t.Fatalf("expected no similarity factor, got %+v", b.Similarity)
	}
	if !approx(b.Skills.Score, 0.5) {
		t.Fatalf("expected skill score 0.5, got %v", b.Skills.Score)
	}
}

func TestCombineBounds(t *testing.T) {
	c := NewCombiner(DefaultWeights())
	levels := []profile.ExperienceLevel{
		profile.ExperienceUnknown,
		profile.ExperienceFresher,
		profile.ExperienceJunior,
		profile.ExperienceMid,
		profile.ExperienceSenior,
	}
	sims := []float64{-1, 0, 0.3, 1, 2, math.NaN()}
	overlaps := []SkillOverlap{
		Overlap(nil, nil),
		Overlap([]string{"a"}, []string{"a"}),
		Overlap([]string{"a"}, []string{"b"}),
	}

	for _, cl := range levels {
		for _, jl := range levels {
			for _, sim := range sims {
				for _, ov := range overlaps {
					s := c.Combine(Inputs{
						Similarity:     sim,
						Overlap:        ov,
						CandidateLevel: cl,
						JobLevel:       jl,
						CandidateTrack: "x",
						JobTrack:       "x",
					})
					if s.Value < 0 || s.Value > 1 || s.Percentage < 0 || s.Percentage > 100 {
						t.Fatalf("score out of bounds for %v/%v sim=%v: %+v", cl, jl, sim, s)
					}
				}
			}
		}
	}
}

func TestCombineCustomWeights(t *testing.T) {
	c := NewCombiner(Weights{Skills: 1})

	score := c.Combine(Inputs{
		Overlap:        Overlap([]string{"a"}, []string{"a", "b"}),
		CandidateTrack: "x",
		JobTrack:       "x",
	})
	if score.Percentage != 50 {
		t.Fatalf("expected 50%%, got %d", score.Percentage)
	}
}

func TestExperienceScore(t *testing.T) {
	tests := []struct {
		candidate profile.ExperienceLevel
		job       profile.ExperienceLevel
		want      float64
	}{
		{profile.ExperienceSenior, profile.ExperienceJunior, 1.0},
		{profile.ExperienceMid, profile.ExperienceMid, 1.0},
		{profile.ExperienceJunior, profile.ExperienceMid, 0.7},
		{profile.ExperienceJunior, profile.ExperienceSenior, 0.4},
		{profile.ExperienceFresher, profile.ExperienceSenior, 0.1},
		{profile.ExperienceUnknown, profile.ExperienceMid, 0.1},
		{profile.ExperienceMid, profile.ExperienceUnknown, 0.1},
	}

	for _, tt := range tests {
		if got := ExperienceScore(tt.candidate, tt.job); got != tt.want {
			t.Fatalf("ExperienceScore(%v, %v) = %v, want %v", tt.candidate, tt.job, got, tt.want)
		}
	}
}

func TestTrackScore(t *testing.T) {
	if TrackScore(" Frontend ", "frontend") != 1 {
		t.Fatalf("expected case-insensitive track match")
	}
	if TrackScore("", "") != 0 {
		t.Fatalf("expected blank tracks not to match")
	}
	if TrackScore("backend", "frontend") != 0 {
		t.Fatalf("expected different tracks not to match")
	}
}

func TestBreakdownMatchesCombine(t *testing.T) {
	c := NewCombiner(DefaultWeights())
	in := Inputs{
		Similarity:     0.42,
		Overlap:        Overlap([]string{"go", "sql"}, []string{"Go", "SQL", "Kafka"}),
		CandidateLevel: profile.ExperienceJunior,
		JobLevel:       profile.ExperienceMid,
		CandidateTrack: "backend",
		JobTrack:       "backend",
	}

	b := c.Breakdown(in)
	score := c.Combine(in)

	sum := b.Skills.Contribution + b.Experience.Contribution + b.Track.Contribution
	if diff := sum - score.Percentage; diff < -1 || diff > 1 {
		t.Fatalf("contributions sum to %d, score is %d", sum, score.Percentage)
	}

	out := b.String()
	for _, want := range []string{"skills", "similarity", "experience", "track", "matched: go, sql", "missing: kafka"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in breakdown:\n%s", want, out)
		}
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Fatalf("default weights rejected: %v", err)
	}
	if err := (Weights{Skills: -0.1}).Validate(); err == nil {
		t.Fatalf("expected negative weight to be rejected")
	}
	if err := (Weights{Track: math.Inf(1)}).Validate(); err == nil {
		t.Fatalf("expected infinite weight to be rejected")
	}
}
