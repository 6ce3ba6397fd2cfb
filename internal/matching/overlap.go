package matching

import "github.com/spigell/jobmatch/internal/profile"

// SkillOverlap is the exact-match intersection between a candidate's skills
// and a job's required skills. Both lists hold canonical forms; together
// they partition the canonical required set.
type SkillOverlap struct {
	Matched  []string
	Missing  []string
	Required int
}

// Score is the matched fraction of required skills, 0 when nothing is required.
func (o SkillOverlap) Score() float64 {
	if o.Required == 0 {
		return 0
	}
	return float64(len(o.Matched)) / float64(o.Required)
}

// Overlap compares skills after canonicalization. There is no stemming or
// fuzzy matching; semantic closeness is left to the embedding signal.
func Overlap(candidateSkills, requiredSkills []string) SkillOverlap {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		if c := profile.Canonical(s); c != "" {
			have[c] = struct{}{}
		}
	}

	required := profile.CanonicalSet(requiredSkills)
	overlap := SkillOverlap{
		Matched:  make([]string, 0, len(required)),
		Missing:  make([]string, 0, len(required)),
		Required: len(required),
	}
	for _, r := range required {
		if _, ok := have[r]; ok {
			overlap.Matched = append(overlap.Matched, r)
		} else {
			overlap.Missing = append(overlap.Missing, r)
		}
	}

	return overlap
}
