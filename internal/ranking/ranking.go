package ranking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
)

// Stage is a single step of the ranking pipeline.
type Stage interface {
	Name() string
	// Disable keeps the stage in the pipeline but skips it. Stages the
	// pipeline cannot produce results without return ErrRequiredStage.
	Disable(reason string) error
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, b *Batch) (*Batch, Step, error)
}

// ErrRequiredStage is returned when disabling a stage the pipeline needs.
var ErrRequiredStage = errors.New("stage cannot be disabled")

// toggle is embedded by optional stages.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) error {
	t.disabled = true
	t.reason = reason
	return nil
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

// Scorer scores one pair on exact matching alone. *matching.Engine implements it.
type Scorer interface {
	ScoreExact(c *profile.Candidate, j *profile.Job) (*matching.Result, error)
}

// Deps aggregates dependencies shared across all stages.
type Deps struct {
	Scorer    Scorer
	Candidate *profile.Candidate
	Logger    *zap.Logger
}

// Step describes the result of executing a stage.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a stage.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

// DisableByName marks a stage with the provided name as disabled while keeping it in the list.
func DisableByName(stages []Stage, name, reason string) error {
	for _, stage := range stages {
		if stage.Name() == name {
			if err := stage.Disable(reason); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

// Run executes the supplied stages sequentially and returns the surviving batch.
func Run(ctx context.Context, cfg *Config, deps Deps, stages []Stage, b *Batch) (*Batch, error) {
	for _, stage := range stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}

	for _, stage := range stages {
		if !stage.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("stage disabled", zap.String("name", stage.Name()))
			}
			continue
		}

		next, info, err := stage.Apply(ctx, deps, b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("ranking step",
				zap.String("name", stage.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		b = next
	}

	return b, nil
}

// Describe returns status entries for the provided stages.
func Describe(stages []Stage) []Status {
	statuses := make([]Status, 0, len(stages))
	for _, stage := range stages {
		if reporter, ok := stage.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    stage.Name(),
			Enabled: stage.IsEnabled(),
		})
	}
	return statuses
}
