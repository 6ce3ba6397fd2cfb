package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
	"github.com/spigell/jobmatch/internal/ranking"
)

const PromptBack = "back"

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank jobs for a candidate",
	Run:   command(depsOptions{repository: true, engine: true}, runRank),
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("candidate", "", "candidate id")
	rankCmd.Flags().StringSlice("job", nil, "job ids to rank (default is every stored job)")
	rankCmd.Flags().BoolP("interactive", "i", false, "browse the results and their breakdowns")
	rankCmd.Flags().Bool("describe", false, "print the ranking pipeline and exit")
}

func runRank(ctx context.Context, cmd *cobra.Command, d *deps) error {
	candidateID, _ := cmd.Flags().GetString("candidate")
	jobIDs, _ := cmd.Flags().GetStringSlice("job")
	interactive, _ := cmd.Flags().GetBool("interactive")
	describe, _ := cmd.Flags().GetBool("describe")

	if describe {
		return describeRanking(cmd.OutOrStdout(), d.ranker)
	}
	if strings.TrimSpace(candidateID) == "" {
		return errors.New("--candidate is required")
	}

	candidate, err := d.repo.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}

	jobs, err := loadJobs(ctx, d, jobIDs)
	if err != nil {
		return err
	}

	d.logger.Info("ranking jobs", zap.String(logger.FieldCandidateID, candidate.ID), zap.Int("jobs", len(jobs)))
	results := d.ranker.RankBatch(ctx, candidate, jobs)

	if len(results) == 0 {
		d.logger.Info("exiting", zap.String("reason", "no job shares a skill with the candidate"))
	}

	if interactive && len(results) > 0 {
		return browse(cmd.OutOrStdout(), results)
	}

	return printJSON(cmd.OutOrStdout(), results)
}

func describeRanking(out io.Writer, r *ranking.Ranker) error {
	statuses, err := r.Describe()
	if err != nil {
		return err
	}
	return printJSON(out, statuses)
}

func loadJobs(ctx context.Context, d *deps, ids []string) ([]*profile.Job, error) {
	if len(ids) == 0 {
		return d.repo.ListJobs(ctx)
	}
	return d.repo.GetJobs(ctx, ids)
}

func browse(out io.Writer, results []*matching.Result) error {
	items := make([]string, 0, len(results)+1)
	for _, r := range results {
		items = append(items, resultLabel(r))
	}

	for {
		resultPrompt := promptui.Select{
			Label: "Choose a job and press ENTER",
			Items: append(items, PromptBack),
			Size:  min(len(items)+1, 12),
		}

		idx, selected, err := resultPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		r := results[idx]
		fmt.Fprintf(out, "\n%s\n", resultLabel(r))
		fmt.Fprintln(out, r.Breakdown.String())
	}
}

func resultLabel(r *matching.Result) string {
	label := fmt.Sprintf("%s %3d%%", r.JobID, r.MatchPercentage)
	if r.JobTitle != "" {
		label += " " + r.JobTitle
	}
	if r.Company != "" {
		label += " / " + r.Company
	}
	return label
}
