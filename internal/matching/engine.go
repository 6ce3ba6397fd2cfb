package matching

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

// DefaultNoMatchSimilarity is the similarity below which a pair without any
// shared skill is not a plausible match.
const DefaultNoMatchSimilarity = 0.1

// Config tunes the engine.
type Config struct {
	Weights Weights
	// Neighbors is k for each directional similarity query.
	Neighbors int
	// SimilarityTimeout bounds the whole similarity stage, upserts included;
	// on expiry the pair is scored without an embedding signal.
	SimilarityTimeout time.Duration
	// NoMatchSimilarity is the threshold for the no-match outcome.
	NoMatchSimilarity float64
	// UpsertOnMatch embeds both entities before querying.
	UpsertOnMatch bool
}

// DefaultConfig returns the established engine settings.
func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		Neighbors:         DefaultNeighbors,
		SimilarityTimeout: 5 * time.Second,
		NoMatchSimilarity: DefaultNoMatchSimilarity,
		UpsertOnMatch:     true,
	}
}

// Engine scores candidate/job pairs.
type Engine struct {
	cfg        Config
	index      VectorIndex
	combiner   *Combiner
	similarity *SimilarityCalculator
	logger     *zap.Logger
}

// NewEngine builds an engine. index may be nil, in which case every pair is
// scored on exact matching alone.
func NewEngine(cfg Config, index VectorIndex, log *zap.Logger) (*Engine, error) {
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.NoMatchSimilarity < 0 {
		return nil, errors.New("no-match similarity must not be negative")
	}

	log = logger.WithFields(log)

	return &Engine{
		cfg:        cfg,
		index:      index,
		combiner:   NewCombiner(cfg.Weights),
		similarity: NewSimilarityCalculator(index, cfg.Neighbors, 0, log),
		logger:     log,
	}, nil
}

// Combiner exposes the engine's combiner for explanations.
func (e *Engine) Combiner() *Combiner {
	return e.combiner
}

// ComputeMatch scores c against j using both exact matching and the
// embedding signal. It returns nil, nil when the pair is not a plausible
// match: no shared skill and a similarity below the configured threshold.
func (e *Engine) ComputeMatch(ctx context.Context, c *profile.Candidate, j *profile.Job) (*Result, error) {
	if c == nil || j == nil {
		return nil, errors.New("candidate and job are required")
	}

	log := e.logger.With(logger.PairFields(c.ID, j.ID)...)
	overlap := Overlap(c.Skills, j.RequiredSkills)

	sim := Similarity{Status: SimilarityUnavailable}
	if e.index != nil {
		sim = e.similarityStage(ctx, c, j)
	}

	log.Debug("similarity computed",
		zap.String("similarity_status", string(sim.Status)),
		zap.Float64("similarity", sim.Value),
		zap.Int("matched_skills", len(overlap.Matched)),
	)

	if len(overlap.Matched) == 0 && sim.Value < e.cfg.NoMatchSimilarity {
		log.Debug("no plausible match")
		return nil, nil
	}

	return e.result(c, j, overlap, sim), nil
}

// ScoreExact scores c against j without consulting the vector store.
func (e *Engine) ScoreExact(c *profile.Candidate, j *profile.Job) (*Result, error) {
	if c == nil || j == nil {
		return nil, errors.New("candidate and job are required")
	}
	return e.result(c, j, Overlap(c.Skills, j.RequiredSkills), Similarity{Status: SimilaritySkipped}), nil
}

func (e *Engine) similarityStage(ctx context.Context, c *profile.Candidate, j *profile.Job) Similarity {
	if e.cfg.SimilarityTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SimilarityTimeout)
		defer cancel()
	}

	if e.cfg.UpsertOnMatch && !e.embed(ctx, c, j) {
		return Similarity{Status: SimilarityUnavailable}
	}
	return e.similarity.Similarity(ctx, c, j)
}

// embed upserts both projections concurrently. Failures only cost the
// embedding signal, so they are not reported to the caller. It returns false
// when the deadline passed before both upserts finished.
func (e *Engine) embed(ctx context.Context, c *profile.Candidate, j *profile.Job) bool {
	var g errgroup.Group
	g.Go(func() error {
		e.index.Upsert(ctx, vectorstore.CandidateDocument(c))
		return nil
	})
	g.Go(func() error {
		e.index.Upsert(ctx, vectorstore.JobDocument(j))
		return nil
	})

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		e.logger.Debug("upsert deadline exceeded", zap.Error(ctx.Err()))
		return false
	}
}

func (e *Engine) result(c *profile.Candidate, j *profile.Job, overlap SkillOverlap, sim Similarity) *Result {
	in := Inputs{
		Similarity:     sim.Value,
		Overlap:        overlap,
		CandidateLevel: c.Experience,
		JobLevel:       j.Experience,
		CandidateTrack: c.Track,
		JobTrack:       j.Track,
	}
	score := e.combiner.Combine(in)

	return &Result{
		CandidateID:         c.ID,
		JobID:               j.ID,
		JobTitle:            j.Title,
		Company:             j.Company,
		MatchedSkills:       overlap.Matched,
		MissingSkills:       overlap.Missing,
		MatchPercentage:     score.Percentage,
		MatchScore:          score.Value,
		EmbeddingSimilarity: similarityPercent(sim),
		EmbeddingBased:      sim.Status == SimilarityFound && sim.Value > 0,
		SimilarityStatus:    sim.Status,
		Breakdown:           e.combiner.Breakdown(in),
	}
}
