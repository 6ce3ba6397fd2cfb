package ranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
)

// Ranker turns a pool of jobs into a short, ordered list of results for
// one candidate.
type Ranker struct {
	cfg    Config
	scorer Scorer
	logger *zap.Logger
}

// NewRanker validates cfg and returns a ranker scoring with scorer.
func NewRanker(scorer Scorer, cfg Config, log *zap.Logger) (*Ranker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	r := &Ranker{cfg: cfg, scorer: scorer, logger: logger.WithFields(log)}
	if _, err := r.pipeline(); err != nil {
		return nil, err
	}
	return r, nil
}

// Stages returns a fresh pipeline with the configured stages disabled.
func (r *Ranker) Stages() []Stage {
	// Stage names were checked by NewRanker.
	stages, _ := r.pipeline()
	return stages
}

func (r *Ranker) pipeline() ([]Stage, error) {
	stages := []Stage{
		NewExclude(),
		NewPrefilter(),
		NewScore(),
		NewSelect(),
	}
	for _, name := range r.cfg.Disable {
		if err := DisableByName(stages, strings.TrimSpace(name), "disabled by configuration"); err != nil {
			return nil, err
		}
	}
	return stages, nil
}

// Describe reports every stage of the configured pipeline with its settings.
func (r *Ranker) Describe() ([]Status, error) {
	stages := r.Stages()
	for _, stage := range stages {
		if err := stage.Validate(&r.cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}
	return Describe(stages), nil
}

// RankBatch ranks jobs for c. It never fails: a pipeline error is logged
// and yields an empty list.
func (r *Ranker) RankBatch(ctx context.Context, c *profile.Candidate, jobs []*profile.Job) []*matching.Result {
	if c == nil {
		return []*matching.Result{}
	}

	log := r.logger.With(
		zap.String(logger.FieldBatchID, uuid.NewString()),
		zap.String(logger.FieldCandidateID, c.ID),
	)
	log.Debug("ranking batch", zap.Int("jobs", len(jobs)))

	deps := Deps{Scorer: r.scorer, Candidate: c, Logger: log}
	stages := r.Stages()
	out, err := Run(ctx, &r.cfg, deps, stages, NewBatch(jobs))
	if err != nil {
		log.Error("ranking failed", zap.Error(err))
		return []*matching.Result{}
	}
	log.Debug("ranking pipeline", zap.Any("stages", Describe(stages)))

	return out.Results()
}
