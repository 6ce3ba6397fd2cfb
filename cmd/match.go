package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one candidate against one job",
	Run:   command(depsOptions{repository: true, engine: true}, runMatch),
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("candidate", "", "candidate id")
	matchCmd.Flags().String("job", "", "job id")
	matchCmd.Flags().Bool("explain", false, "print the factor breakdown instead of json")
	matchCmd.MarkFlagRequired("candidate")
	matchCmd.MarkFlagRequired("job")
}

func runMatch(ctx context.Context, cmd *cobra.Command, d *deps) error {
	candidateID, _ := cmd.Flags().GetString("candidate")
	jobID, _ := cmd.Flags().GetString("job")
	explain, _ := cmd.Flags().GetBool("explain")

	candidate, err := d.repo.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}
	job, err := d.repo.GetJob(ctx, strings.TrimSpace(jobID))
	if err != nil {
		return err
	}

	result, err := d.engine.ComputeMatch(ctx, candidate, job)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result == nil {
		d.logger.Info("no plausible match", logger.PairFields(candidate.ID, job.ID)...)
		fmt.Fprintln(out, "null")
		return nil
	}

	d.logger.Info("match computed",
		zap.String(logger.FieldCandidateID, result.CandidateID),
		zap.String(logger.FieldJobID, result.JobID),
		zap.Int("match_percentage", result.MatchPercentage),
		zap.String("similarity_status", string(result.SimilarityStatus)),
	)

	if explain {
		printExplanation(out, result, d.engine.Combiner().Weights())
		return nil
	}

	return printJSON(out, result)
}

func printExplanation(out io.Writer, result *matching.Result, w matching.Weights) {
	fmt.Fprintf(out, "%s / %s: %d%%\n", result.CandidateID, result.JobID, result.MatchPercentage)
	fmt.Fprintf(out, "weights: skills=%.2f experience=%.2f track=%.2f similarity=%.2f overlap=%.2f\n",
		w.Skills, w.Experience, w.Track, w.Similarity, w.Overlap)
	fmt.Fprint(out, result.Breakdown.String())
}

func printJSON(w io.Writer, v any) error {
	if w == nil {
		return errors.New("no output")
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(pretty))
	return err
}
