package ranking

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/profile"
)

type excludeStage struct {
	toggle
	companies map[string]struct{}
	jobs      map[string]struct{}
}

// NewExclude creates a stage that removes jobs by id or company configured in the config.
func NewExclude() Stage {
	return &excludeStage{}
}

func (s *excludeStage) Name() string { return "exclude" }

func (s *excludeStage) Validate(cfg *Config) error {
	s.companies = toSet(cfg.ExcludeCompanies, profile.Canonical)
	s.jobs = toSet(cfg.ExcludeJobs, strings.TrimSpace)
	return nil
}

func (s *excludeStage) Apply(_ context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if len(s.companies) == 0 && len(s.jobs) == 0 {
		return b, Step{Initial: initial, Left: initial}, nil
	}

	excluded := b.Exclude(func(e *Entry) bool {
		if _, ok := s.jobs[strings.TrimSpace(e.Job.ID)]; ok {
			return true
		}
		_, ok := s.companies[profile.Canonical(e.Job.Company)]
		return ok
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding jobs by configuration",
			zap.Strings("excluded_jobs", excluded),
			zap.Int("jobs_left", b.Len()),
		)
	}

	return b, Step{Initial: initial, Dropped: len(excluded), Left: b.Len()}, nil
}

func (s *excludeStage) Status() Status {
	details := map[string]string{}
	if len(s.companies) > 0 {
		details["companies"] = joinKeys(s.companies)
	}
	if len(s.jobs) > 0 {
		details["jobs"] = joinKeys(s.jobs)
	}
	return Status{Name: s.Name(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

func toSet(items []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		if v := norm(item); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
