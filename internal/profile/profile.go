package profile

import (
	"strings"
)

// ExperienceLevel is an ordinal seniority scale shared by candidates and jobs.
type ExperienceLevel int

const (
	ExperienceUnknown ExperienceLevel = iota
	ExperienceFresher
	ExperienceJunior
	ExperienceMid
	ExperienceSenior
)

var experienceNames = map[ExperienceLevel]string{
	ExperienceFresher: "Fresher",
	ExperienceJunior:  "Junior",
	ExperienceMid:     "Mid",
	ExperienceSenior:  "Senior",
}

var experienceAliases = map[string]ExperienceLevel{
	"fresher":      ExperienceFresher,
	"entry":        ExperienceFresher,
	"intern":       ExperienceFresher,
	"junior":       ExperienceJunior,
	"mid":          ExperienceMid,
	"middle":       ExperienceMid,
	"intermediate": ExperienceMid,
	"senior":       ExperienceSenior,
	"lead":         ExperienceSenior,
	"expert":       ExperienceSenior,
}

// ParseExperienceLevel maps a free-form level name to the ordinal scale.
// Unrecognised values yield ExperienceUnknown.
func ParseExperienceLevel(s string) ExperienceLevel {
	return experienceAliases[Canonical(s)]
}

func (l ExperienceLevel) String() string {
	if name, ok := experienceNames[l]; ok {
		return name
	}
	return ""
}

// Known reports whether the level is one of the defined grades.
func (l ExperienceLevel) Known() bool {
	_, ok := experienceNames[l]
	return ok
}

// MarshalText encodes the level by name so fixtures and metadata stay readable.
func (l ExperienceLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *ExperienceLevel) UnmarshalText(text []byte) error {
	*l = ParseExperienceLevel(string(text))
	return nil
}

// Candidate is a read-only view of a candidate profile.
type Candidate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name,omitempty"`
	Skills     []string        `json:"skills,omitempty"`
	Experience ExperienceLevel `json:"experience"`
	Track      string          `json:"track,omitempty"`
	Interests  []string        `json:"interests,omitempty"`
	Education  string          `json:"education,omitempty"`
}

// Job is a read-only view of a job posting.
type Job struct {
	ID             string          `json:"id"`
	Title          string          `json:"title,omitempty"`
	Company        string          `json:"company,omitempty"`
	RequiredSkills []string        `json:"required_skills,omitempty"`
	Experience     ExperienceLevel `json:"experience"`
	Track          string          `json:"track,omitempty"`
	JobType        string          `json:"job_type,omitempty"`
	Location       string          `json:"location,omitempty"`
}

// Canonical folds case and trims surrounding whitespace.
func Canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalSet returns the distinct canonical forms of items in order of
// first appearance. Blank items are dropped.
func CanonicalSet(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		c := Canonical(item)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// SameTrack reports whether two tracks are equal after canonicalization.
// Blank tracks never match.
func SameTrack(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	return ca != "" && ca == cb
}
