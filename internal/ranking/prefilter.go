package ranking

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spigell/jobmatch/internal/matching"
)

type prefilterStage struct {
	toggle
	window int
}

// NewPrefilter creates the cheap stage: jobs sharing no skill with the
// candidate are dropped and the rest are ordered by overlap count. With the
// stage disabled every job is scored.
func NewPrefilter() Stage {
	return &prefilterStage{}
}

func (s *prefilterStage) Name() string { return "prefilter" }

func (s *prefilterStage) Validate(cfg *Config) error {
	s.window = cfg.PrefilterWindow
	return nil
}

func (s *prefilterStage) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if deps.Candidate == nil {
		return b, Step{}, fmt.Errorf("candidate is required")
	}

	for _, e := range b.Entries {
		e.Overlap = len(matching.Overlap(deps.Candidate.Skills, e.Job.RequiredSkills).Matched)
	}
	b.Exclude(func(e *Entry) bool { return e.Overlap == 0 })

	sort.SliceStable(b.Entries, func(i, j int) bool {
		return b.Entries[i].Overlap > b.Entries[j].Overlap
	})
	b.Truncate(s.window)

	return b, Step{Initial: initial, Dropped: initial - b.Len(), Left: b.Len()}, nil
}

func (s *prefilterStage) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: s.IsEnabled(),
		Reason:  s.reason,
		Details: map[string]string{"window": strconv.Itoa(s.window)},
	}
}
