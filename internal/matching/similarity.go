package matching

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

// DefaultNeighbors is how many nearest documents each directional query asks for.
const DefaultNeighbors = 50

// SimilarityStatus tells why a similarity has the value it has.
type SimilarityStatus string

const (
	// SimilarityFound means at least one direction located the target.
	SimilarityFound SimilarityStatus = "found"
	// SimilarityNotFound means the store answered but the target was outside
	// the nearest neighbours in both directions.
	SimilarityNotFound SimilarityStatus = "not_found"
	// SimilarityUnavailable means the store could not answer in time.
	SimilarityUnavailable SimilarityStatus = "unavailable"
	// SimilaritySkipped means the caller did not ask for an embedding signal.
	SimilaritySkipped SimilarityStatus = "skipped"
)

// Similarity is a [0,1] closeness between a candidate and a job together
// with the reason for its value. Value is 0 unless Status is SimilarityFound.
type Similarity struct {
	Status SimilarityStatus
	Value  float64
}

// VectorIndex is the part of the vector store adapter used by the engine.
type VectorIndex interface {
	Upsert(ctx context.Context, doc vectorstore.Document) bool
	Query(ctx context.Context, text string, k int, docType vectorstore.DocType) *vectorstore.QueryResult
}

// SimilarityCalculator derives a pair similarity from two nearest-neighbour
// queries, candidate to jobs and job to candidates.
type SimilarityCalculator struct {
	index   VectorIndex
	k       int
	timeout time.Duration
	logger  *zap.Logger
}

// NewSimilarityCalculator creates a calculator. A zero timeout leaves the
// deadline to the caller's context.
func NewSimilarityCalculator(index VectorIndex, k int, timeout time.Duration, logger *zap.Logger) *SimilarityCalculator {
	if k <= 0 {
		k = DefaultNeighbors
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimilarityCalculator{index: index, k: k, timeout: timeout, logger: logger}
}

// Similarity expects both entities to be embedded already. The two queries
// run concurrently; if the deadline passes first the pair is reported
// unavailable without waiting for them.
func (s *SimilarityCalculator) Similarity(ctx context.Context, c *profile.Candidate, j *profile.Job) Similarity {
	if s == nil || s.index == nil {
		return Similarity{Status: SimilarityUnavailable}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var forward, backward *vectorstore.QueryResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		forward = s.index.Query(gctx, c.Text(), s.k, vectorstore.DocJob)
		return nil
	})
	g.Go(func() error {
		backward = s.index.Query(gctx, j.Text(), s.k, vectorstore.DocCandidate)
		return nil
	})

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Debug("similarity deadline exceeded", zap.Error(ctx.Err()))
		return Similarity{Status: SimilarityUnavailable}
	}

	return combineDirections(
		forward, vectorstore.DocumentID(vectorstore.DocJob, j.ID),
		backward, vectorstore.DocumentID(vectorstore.DocCandidate, c.ID),
	)
}

func combineDirections(forward *vectorstore.QueryResult, jobDocID string, backward *vectorstore.QueryResult, candidateDocID string) Similarity {
	var sum float64
	var found int
	answered := false

	for _, dir := range []struct {
		result *vectorstore.QueryResult
		target string
	}{
		{forward, jobDocID},
		{backward, candidateDocID},
	} {
		if dir.result == nil || !dir.result.Available {
			continue
		}
		answered = true
		if d, ok := dir.result.Distance(dir.target); ok {
			sum += clamp(1-d, 0, 1)
			found++
		}
	}

	switch {
	case found > 0:
		return Similarity{Status: SimilarityFound, Value: sum / float64(found)}
	case answered:
		return Similarity{Status: SimilarityNotFound}
	default:
		return Similarity{Status: SimilarityUnavailable}
	}
}
