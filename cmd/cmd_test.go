package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/repository"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig(testViper(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if config.Matching == nil || config.Matching.Weights != matching.DefaultWeights() {
		t.Fatalf("unexpected weights: %+v", config.Matching)
	}
	if config.Matching.SimilarityTimeout != 5*time.Second || config.Matching.SimilarityK != 50 {
		t.Fatalf("unexpected matching defaults: %+v", config.Matching)
	}
	if config.Ranking.PrefilterWindow != 20 || config.Ranking.ResultWindow != 10 {
		t.Fatalf("unexpected ranking defaults: %+v", config.Ranking)
	}
	if config.Store.Provider != storeMemory || config.Embedding.Provider != embeddingHash {
		t.Fatalf("unexpected providers: %s / %s", config.Store.Provider, config.Embedding.Provider)
	}
	if config.Repository.Driver != repository.DriverSQLite {
		t.Fatalf("unexpected repository driver: %s", config.Repository.Driver)
	}
	if config.Store.Cooldown != vectorstore.DefaultCooldown {
		t.Fatalf("unexpected store cooldown: %v", config.Store.Cooldown)
	}
	chroma := config.Store.Chroma
	if chroma.APIVersion != vectorstore.ChromaAPIv2 || chroma.Tenant != "default_tenant" || chroma.Database != "default_database" {
		t.Fatalf("unexpected chroma defaults: %+v", chroma)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JOBMATCH_MATCHING_WEIGHTS_SKILLS", "0.5")
	t.Setenv("JOBMATCH_MATCHING_SIMILARITY_TIMEOUT", "250ms")
	t.Setenv("JOBMATCH_STORE_PROVIDER", "none")

	config, err := loadConfig(testViper(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if config.Matching.Weights.Skills != 0.5 {
		t.Fatalf("expected skills weight 0.5, got %v", config.Matching.Weights.Skills)
	}
	if config.Matching.SimilarityTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms timeout, got %v", config.Matching.SimilarityTimeout)
	}
	if config.Store.Provider != storeNone {
		t.Fatalf("expected store none, got %s", config.Store.Provider)
	}
}

func TestLoadConfigFile(t *testing.T) {
	v := testViper(t)
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(`
matching:
  weights:
    track: 0
ranking:
  result-window: 3
  exclude-companies: [Acme]
`))
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}

	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if config.Matching.Weights.Track != 0 || config.Matching.Weights.Skills != 0.6 {
		t.Fatalf("unexpected weights: %+v", config.Matching.Weights)
	}
	if config.Ranking.ResultWindow != 3 || len(config.Ranking.ExcludeCompanies) != 1 {
		t.Fatalf("unexpected ranking config: %+v", config.Ranking)
	}
}

func testDeps(t *testing.T, provider string, opts depsOptions) *deps {
	t.Helper()
	config, err := loadConfig(testViper(t))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	config.Store.Provider = provider
	config.Repository.DSN = filepath.Join(t.TempDir(), "jobmatch.db")

	d, err := newDeps(context.Background(), config, zaptest.NewLogger(t), opts)
	if err != nil {
		t.Fatalf("newDeps: %v", err)
	}
	t.Cleanup(d.close)
	return d
}

func TestNewDepsWithoutStore(t *testing.T) {
	d := testDeps(t, storeNone, depsOptions{engine: true})
	if d.adapter != nil {
		t.Fatalf("expected no vector store")
	}
	if d.engine == nil || d.ranker == nil {
		t.Fatalf("expected engine and ranker")
	}
}

func TestImportThenMatch(t *testing.T) {
	d := testDeps(t, storeMemory, depsOptions{repository: true, engine: true})
	ctx := context.Background()

	f, err := readFixture(strings.NewReader(`{
		"candidates": [{"id": "c1", "skills": ["React", "JS"], "experience": "Mid", "track": "frontend"}],
		"jobs": [
			{"id": "j1", "title": "Frontend", "required_skills": ["React", "JS", "Redux"], "experience": "mid", "track": "Frontend"},
			{"id": "j2", "title": "Designer", "required_skills": ["Figma"], "track": "design"}
		]
	}`))
	if err != nil {
		t.Fatalf("readFixture: %v", err)
	}

	candidates, jobs, err := importFixture(ctx, d.repo, f)
	if err != nil || candidates != 1 || jobs != 2 {
		t.Fatalf("importFixture = %d, %d, %v", candidates, jobs, err)
	}

	c, err := d.repo.GetCandidate(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCandidate: %v", err)
	}
	if c.Experience != profile.ExperienceMid {
		t.Fatalf("expected Mid experience, got %v", c.Experience)
	}

	all, err := loadJobs(ctx, d, nil)
	if err != nil {
		t.Fatalf("loadJobs: %v", err)
	}
	results := d.ranker.RankBatch(ctx, c, all)
	if len(results) != 1 || results[0].JobID != "j1" || results[0].MatchPercentage != 80 {
		t.Fatalf("unexpected ranking: %+v", results)
	}

	j, err := d.repo.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	res, err := d.engine.ComputeMatch(ctx, c, j)
	if err != nil {
		t.Fatalf("ComputeMatch: %v", err)
	}
	if res == nil || res.SimilarityStatus != matching.SimilarityFound {
		t.Fatalf("expected a similarity-backed match, got %+v", res)
	}

	var buf bytes.Buffer
	if err := printJSON(&buf, res); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if decoded["job_id"] != "j1" || decoded["factor_breakdown"] == nil {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestUpsertAll(t *testing.T) {
	d := testDeps(t, storeMemory, depsOptions{store: true})

	docs := []vectorstore.Document{
		vectorstore.CandidateDocument(&profile.Candidate{ID: "c1", Skills: []string{"Go"}}),
		vectorstore.JobDocument(&profile.Job{ID: "j1", RequiredSkills: []string{"Go"}}),
		vectorstore.JobDocument(&profile.Job{ID: "j2", RequiredSkills: []string{"Rust"}}),
	}

	indexed, failed := upsertAll(context.Background(), d.adapter, docs, 2)
	if indexed != 3 || failed != 0 {
		t.Fatalf("upsertAll = %d indexed, %d failed", indexed, failed)
	}

	res := d.adapter.Query(context.Background(), "Skills: Go", 10, vectorstore.DocJob)
	if !res.Available || len(res.IDs) != 2 {
		t.Fatalf("expected two indexed jobs, got %+v", res)
	}
}

func TestResultLabel(t *testing.T) {
	label := resultLabel(&matching.Result{JobID: "j1", JobTitle: "Backend", Company: "Acme", MatchPercentage: 7})
	if label != "j1   7% Backend / Acme" {
		t.Fatalf("unexpected label %q", label)
	}
}

func TestPrintExplanationShowsWeights(t *testing.T) {
	d := testDeps(t, storeNone, depsOptions{engine: true})
	c := &profile.Candidate{ID: "c1", Skills: []string{"Go"}, Experience: profile.ExperienceMid, Track: "backend"}
	j := &profile.Job{ID: "j1", RequiredSkills: []string{"Go"}, Experience: profile.ExperienceMid, Track: "backend"}

	res, err := d.engine.ComputeMatch(context.Background(), c, j)
	if err != nil || res == nil {
		t.Fatalf("ComputeMatch = %+v, %v", res, err)
	}

	var buf bytes.Buffer
	printExplanation(&buf, res, d.engine.Combiner().Weights())
	out := buf.String()
	if !strings.HasPrefix(out, "c1 / j1: ") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "weights: skills=0.60 experience=0.20 track=0.20") {
		t.Fatalf("expected active weights in explanation, got %q", out)
	}
}

func TestDescribeRanking(t *testing.T) {
	v := testViper(t)
	v.Set("ranking.disable", []string{"exclude"})
	config, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	config.Store.Provider = storeNone

	d, err := newDeps(context.Background(), config, zaptest.NewLogger(t), depsOptions{engine: true})
	if err != nil {
		t.Fatalf("newDeps: %v", err)
	}
	t.Cleanup(d.close)

	var buf bytes.Buffer
	if err := describeRanking(&buf, d.ranker); err != nil {
		t.Fatalf("describeRanking: %v", err)
	}

	var statuses []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &statuses); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	if len(statuses) != 4 || statuses[0]["name"] != "exclude" || statuses[0]["enabled"] != false {
		t.Fatalf("unexpected pipeline description: %s", buf.String())
	}
	if statuses[2]["name"] != "score" || statuses[2]["enabled"] != true {
		t.Fatalf("expected score stage enabled: %s", buf.String())
	}
}
