package ranking

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
)

type scoreStage struct {
	concurrency int
}

// NewScore creates the stage that computes the exact-matching score of
// every remaining job. A job whose scoring fails is dropped alone.
func NewScore() Stage {
	return &scoreStage{}
}

func (s *scoreStage) Name() string { return "score" }

func (s *scoreStage) Disable(string) error { return ErrRequiredStage }

func (s *scoreStage) IsEnabled() bool { return true }

func (s *scoreStage) Validate(cfg *Config) error {
	s.concurrency = cfg.Concurrency
	return nil
}

func (s *scoreStage) Apply(ctx context.Context, deps Deps, b *Batch) (*Batch, Step, error) {
	initial := b.Len()
	if deps.Scorer == nil {
		return b, Step{}, fmt.Errorf("scorer is required")
	}

	results := make([]*matching.Result, initial)
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, e := range b.Entries {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := scoreOne(deps, e)
			if err != nil {
				if deps.Logger != nil {
					deps.Logger.Warn("scoring job failed",
						zap.String(logger.FieldJobID, e.Job.ID),
						zap.Error(err),
					)
				}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()

	for i, e := range b.Entries {
		e.Result = results[i]
	}
	b.Exclude(func(e *Entry) bool { return e.Result == nil })

	return b, Step{Initial: initial, Dropped: initial - b.Len(), Left: b.Len()}, nil
}

func (s *scoreStage) Status() Status {
	return Status{
		Name:    s.Name(),
		Enabled: true,
		Details: map[string]string{"concurrency": strconv.Itoa(s.concurrency)},
	}
}

func scoreOne(deps Deps, e *Entry) (res *matching.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return deps.Scorer.ScoreExact(deps.Candidate, e.Job)
}
