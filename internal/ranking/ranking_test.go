package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
)

func newTestRanker(t *testing.T, cfg Config, log *zap.Logger) *Ranker {
	t.Helper()
	engine, err := matching.NewEngine(matching.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	r, err := NewRanker(engine, cfg, log)
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}
	return r
}

func candidate() *profile.Candidate {
	return &profile.Candidate{
		ID:         "c1",
		Skills:     []string{"Go", "SQL", "Kafka", "Docker"},
		Experience: profile.ExperienceMid,
		Track:      "backend",
	}
}

func TestRankBatchOnlyOverlappingJobs(t *testing.T) {
	jobs := make([]*profile.Job, 0, 100)
	for i := 0; i < 97; i++ {
		jobs = append(jobs, &profile.Job{
			ID:             fmt.Sprintf("design-%03d", i),
			RequiredSkills: []string{"Figma", "Photoshop"},
			Track:          "design",
		})
	}
	jobs = append(jobs,
		&profile.Job{ID: "b1", RequiredSkills: []string{"Go", "Rust"}, Track: "backend", Experience: profile.ExperienceMid},
		&profile.Job{ID: "b2", RequiredSkills: []string{"go", "sql", "kafka"}, Track: "backend", Experience: profile.ExperienceMid},
		&profile.Job{ID: "b3", RequiredSkills: []string{"Docker", "Kubernetes", "Terraform"}, Track: "devops", Experience: profile.ExperienceSenior},
	)

	results := newTestRanker(t, DefaultConfig(), nil).RankBatch(context.Background(), candidate(), jobs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].MatchScore <= results[i].MatchScore {
			t.Fatalf("results not strictly descending at %d: %v then %v", i, results[i-1].MatchScore, results[i].MatchScore)
		}
	}
	if results[0].JobID != "b2" {
		t.Fatalf("expected b2 first, got %s", results[0].JobID)
	}
}

func TestRankBatchWindows(t *testing.T) {
	jobs := make([]*profile.Job, 0, 30)
	for i := 0; i < 30; i++ {
		jobs = append(jobs, &profile.Job{ID: fmt.Sprintf("j%02d", i), RequiredSkills: []string{"Go"}})
	}

	cfg := DefaultConfig()
	results := newTestRanker(t, cfg, nil).RankBatch(context.Background(), candidate(), jobs)
	if len(results) != cfg.ResultWindow {
		t.Fatalf("expected %d results, got %d", cfg.ResultWindow, len(results))
	}
	// All scores tie, so job ids decide the order.
	for i, res := range results {
		if want := fmt.Sprintf("j%02d", i); res.JobID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, res.JobID)
		}
	}
}

func TestRankBatchEmptyInputs(t *testing.T) {
	r := newTestRanker(t, DefaultConfig(), nil)

	if got := r.RankBatch(context.Background(), candidate(), nil); len(got) != 0 {
		t.Fatalf("expected no results for empty pool, got %d", len(got))
	}
	if got := r.RankBatch(context.Background(), nil, []*profile.Job{{ID: "x"}}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil results for nil candidate, got %v", got)
	}
}

func TestRankBatchLogsSteps(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := newTestRanker(t, DefaultConfig(), zap.New(core))

	r.RankBatch(context.Background(), candidate(), []*profile.Job{
		{ID: "a", RequiredSkills: []string{"Go"}},
		{ID: "b", RequiredSkills: []string{"Cobol"}},
	})

	steps := logs.FilterMessage("ranking step").All()
	if len(steps) != 4 {
		t.Fatalf("expected 4 step entries, got %d", len(steps))
	}
	prefilter := steps[1].ContextMap()
	if prefilter["name"] != "prefilter" || prefilter["dropped"] != int64(1) || prefilter["left"] != int64(1) {
		t.Fatalf("unexpected prefilter entry: %v", prefilter)
	}
	if id, ok := prefilter["batch_id"].(string); !ok || id == "" {
		t.Fatalf("expected batch_id on step entries, got %v", prefilter)
	}
}

type flakyScorer struct {
	inner *matching.Engine
	calls atomic.Int32
}

func (f *flakyScorer) ScoreExact(c *profile.Candidate, j *profile.Job) (*matching.Result, error) {
	f.calls.Add(1)
	switch j.ID {
	case "boom":
		panic("scorer exploded")
	case "err":
		return nil, errors.New("bad job")
	}
	return f.inner.ScoreExact(c, j)
}

func TestScoreIsolatesFailures(t *testing.T) {
	engine, err := matching.NewEngine(matching.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	scorer := &flakyScorer{inner: engine}

	core, logs := observer.New(zapcore.WarnLevel)
	r, err := NewRanker(scorer, DefaultConfig(), zap.New(core))
	if err != nil {
		t.Fatalf("NewRanker: %v", err)
	}

	results := r.RankBatch(context.Background(), candidate(), []*profile.Job{
		{ID: "ok", RequiredSkills: []string{"Go"}},
		{ID: "boom", RequiredSkills: []string{"Go"}},
		{ID: "err", RequiredSkills: []string{"SQL"}},
	})

	if len(results) != 1 || results[0].JobID != "ok" {
		t.Fatalf("expected only the healthy job, got %v", results)
	}
	if scorer.calls.Load() != 3 {
		t.Fatalf("expected every job scored once, got %d", scorer.calls.Load())
	}
	if n := logs.FilterMessage("scoring job failed").Len(); n != 2 {
		t.Fatalf("expected 2 failure logs, got %d", n)
	}
}

func TestExcludeStage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExcludeCompanies = []string{" ACME "}
	cfg.ExcludeJobs = []string{"j2"}

	results := newTestRanker(t, cfg, nil).RankBatch(context.Background(), candidate(), []*profile.Job{
		{ID: "j1", Company: "Acme", RequiredSkills: []string{"Go"}},
		{ID: "j2", Company: "Initech", RequiredSkills: []string{"Go"}},
		{ID: "j3", Company: "Initech", RequiredSkills: []string{"Go"}},
	})

	if len(results) != 1 || results[0].JobID != "j3" {
		t.Fatalf("expected only j3, got %v", results)
	}
}

func TestPrefilterOrdersByOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PrefilterWindow = 2
	stage := NewPrefilter()
	if err := stage.Validate(&cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	b := NewBatch([]*profile.Job{
		{ID: "one", RequiredSkills: []string{"Go"}},
		{ID: "three", RequiredSkills: []string{"Go", "SQL", "Kafka"}},
		nil,
		{ID: "two-a", RequiredSkills: []string{"Go", "SQL"}},
		{ID: "two-b", RequiredSkills: []string{"Docker", "Kafka"}},
	})

	out, step, err := stage.Apply(context.Background(), Deps{Candidate: candidate()}, b)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
	if out.Entries[0].Job.ID != "three" || out.Entries[1].Job.ID != "two-a" {
		t.Fatalf("unexpected order: %s, %s", out.Entries[0].Job.ID, out.Entries[1].Job.ID)
	}
}

func TestNewRankerRejectsBadConfig(t *testing.T) {
	for _, cfg := range []Config{
		{PrefilterWindow: 0, ResultWindow: 1, Concurrency: 1},
		{PrefilterWindow: 1, ResultWindow: 0, Concurrency: 1},
		{PrefilterWindow: 1, ResultWindow: 1, Concurrency: 0},
	} {
		if _, err := NewRanker(nil, cfg, nil); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestDescribeAndDisable(t *testing.T) {
	cfg := DefaultConfig()
	r := newTestRanker(t, cfg, nil)
	stages := r.Stages()
	for _, s := range stages {
		if err := s.Validate(&cfg); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}

	if err := DisableByName(stages, "exclude", "not needed"); err != nil {
		t.Fatalf("DisableByName: %v", err)
	}
	statuses := Describe(stages)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	if statuses[0].Enabled || statuses[0].Reason != "not needed" {
		t.Fatalf("expected exclude to be disabled, got %+v", statuses[0])
	}
	if statuses[1].Name != "prefilter" || statuses[1].Details["window"] != "20" {
		t.Fatalf("unexpected prefilter status: %+v", statuses[1])
	}
}

func TestDisableByNameRejectsRequiredAndUnknown(t *testing.T) {
	stages := newTestRanker(t, DefaultConfig(), nil).Stages()

	for _, name := range []string{"score", "select"} {
		if err := DisableByName(stages, name, "test"); !errors.Is(err, ErrRequiredStage) {
			t.Fatalf("expected ErrRequiredStage for %s, got %v", name, err)
		}
	}
	if err := DisableByName(stages, "dedupe", "test"); err == nil {
		t.Fatalf("expected error for unknown stage")
	}

	cfg := DefaultConfig()
	cfg.Disable = []string{"score"}
	if _, err := NewRanker(nil, cfg, nil); !errors.Is(err, ErrRequiredStage) {
		t.Fatalf("expected NewRanker to reject disabling score, got %v", err)
	}
}

func TestDisabledPrefilterScoresEveryJob(t *testing.T) {
	jobs := []*profile.Job{
		{ID: "b1", RequiredSkills: []string{"Go"}, Track: "backend", Experience: profile.ExperienceMid},
		{ID: "d1", RequiredSkills: []string{"Figma"}, Track: "design"},
		{ID: "d2", RequiredSkills: []string{"Photoshop"}, Track: "design"},
	}

	cfg := DefaultConfig()
	cfg.Disable = []string{" prefilter "}
	core, observed := observer.New(zapcore.DebugLevel)
	r := newTestRanker(t, cfg, zap.New(core))

	results := r.RankBatch(context.Background(), candidate(), jobs)
	if len(results) != 3 {
		t.Fatalf("expected every job scored without the prefilter, got %d", len(results))
	}
	if results[0].JobID != "b1" {
		t.Fatalf("expected overlapping job first, got %s", results[0].JobID)
	}
	if observed.FilterMessage("stage disabled").Len() != 1 {
		t.Fatalf("expected the disabled stage to be logged")
	}
	if observed.FilterMessage("ranking pipeline").Len() != 1 {
		t.Fatalf("expected the pipeline description to be logged")
	}

	statuses, err := r.Describe()
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	prefilter := statuses[1]
	if prefilter.Name != "prefilter" || prefilter.Enabled || prefilter.Reason != "disabled by configuration" {
		t.Fatalf("unexpected prefilter status: %+v", prefilter)
	}
	if statuses[3].Details["window"] != "10" {
		t.Fatalf("expected select window in description, got %+v", statuses[3])
	}
}

func TestDefaultsAndEmptyBatch(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.PrefilterWindow != DefaultPrefilterWindow || cfg.ResultWindow != DefaultResultWindow || cfg.Concurrency != DefaultConcurrency {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	var b *Batch
	if b.Len() != 0 || len(b.Results()) != 0 {
		t.Fatalf("expected a nil batch to be empty")
	}
	if NewBatch([]*profile.Job{nil, {ID: "j1"}}).Len() != 1 {
		t.Fatalf("expected nil jobs to be skipped")
	}
}
