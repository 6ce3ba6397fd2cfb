package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/repository"
)

// fixture is the import file format.
type fixture struct {
	Candidates []*profile.Candidate `json:"candidates"`
	Jobs       []*profile.Job       `json:"jobs"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load candidates and jobs from a json file into the repository",
	Run:   command(depsOptions{repository: true}, runImport),
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("file", "f", "", "json file with candidates and jobs")
	importCmd.MarkFlagRequired("file")
}

func runImport(ctx context.Context, cmd *cobra.Command, d *deps) error {
	path, _ := cmd.Flags().GetString("file")

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	f, err := readFixture(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	candidates, jobs, err := importFixture(ctx, d.repo, f)
	d.logger.Info("import finished",
		zap.String("file", path),
		zap.Int("candidates", candidates),
		zap.Int("jobs", jobs),
	)
	return err
}

func readFixture(r io.Reader) (*fixture, error) {
	var f fixture
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	if len(f.Candidates) == 0 && len(f.Jobs) == 0 {
		return nil, errors.New("no candidates or jobs found")
	}
	return &f, nil
}

// importFixture saves everything in f and reports how many entities were stored.
func importFixture(ctx context.Context, repo repository.Repository, f *fixture) (int, int, error) {
	var candidates, jobs int
	for _, c := range f.Candidates {
		if err := repo.SaveCandidate(ctx, c); err != nil {
			return candidates, jobs, err
		}
		candidates++
	}
	for _, j := range f.Jobs {
		if err := repo.SaveJob(ctx, j); err != nil {
			return candidates, jobs, err
		}
		jobs++
	}
	return candidates, jobs, nil
}
