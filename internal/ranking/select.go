package ranking

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

type selectStage struct {
	window int
}

// NewSelect creates the stage ordering scored jobs by match score and
// keeping the best ones. Equal scores are ordered by job id.
func NewSelect() Stage {
	return &selectStage{}
}

func (s *selectStage) Name() string { return "select" }

func (s *selectStage) Disable(string) error { return ErrRequiredStage }

func (s *selectStage) IsEnabled() bool { return true }

func (s *selectStage) Validate(cfg *Config) error {
	s.window = cfg.ResultWindow
	return nil
}

func (s *selectStage) Apply(_ context.Context, _ Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	b.Exclude(func(e *Entry) bool { return e.Result == nil })

	sort.SliceStable(b.Entries, func(i, j int) bool {
		a, c := b.Entries[i].Result, b.Entries[j].Result
		if a.MatchScore != c.MatchScore {
			return a.MatchScore > c.MatchScore
		}
		return a.JobID < c.JobID
	})
	b.Truncate(s.window)

	return b, Step{Initial: initial, Dropped: initial - b.Len(), Left: b.Len()}, nil
}

func (s *selectStage) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: true,
		Details: map[string]string{"window": strconv.Itoa(s.window)},
	}
}

func joinKeys(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
