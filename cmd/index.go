package cmd

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/vectorstore"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed stored candidates and jobs into the vector store",
	Run:   command(depsOptions{repository: true, store: true}, runIndex),
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().Bool("candidates", false, "index candidates")
	indexCmd.Flags().Bool("jobs", false, "index jobs")
}

func runIndex(ctx context.Context, cmd *cobra.Command, d *deps) error {
	if d.adapter == nil {
		return errors.New("vector store is disabled (store.provider is none)")
	}
	if d.config.Store != nil && d.config.Store.Provider == storeMemory {
		d.logger.Warn("the memory store lives only as long as this process; nothing will persist")
	}

	withCandidates, _ := cmd.Flags().GetBool("candidates")
	withJobs, _ := cmd.Flags().GetBool("jobs")
	if !withCandidates && !withJobs {
		withCandidates, withJobs = true, true
	}

	if err := d.adapter.Init(ctx); err != nil {
		return err
	}

	var docs []vectorstore.Document
	if withCandidates {
		candidates, err := d.repo.ListCandidates(ctx)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			docs = append(docs, vectorstore.CandidateDocument(c))
		}
	}
	if withJobs {
		jobs, err := d.repo.ListJobs(ctx)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			docs = append(docs, vectorstore.JobDocument(j))
		}
	}

	indexed, failed := upsertAll(ctx, d.adapter, docs, d.config.Ranking.Concurrency)
	d.logger.Info("indexing finished",
		zap.Int("documents", len(docs)),
		zap.Int64("indexed", indexed),
		zap.Int64("failed", failed),
	)

	if failed > 0 && indexed == 0 {
		return errors.New("vector store rejected every document")
	}
	return nil
}

func upsertAll(ctx context.Context, adapter *vectorstore.Adapter, docs []vectorstore.Document, concurrency int) (int64, int64) {
	if concurrency <= 0 {
		concurrency = ranking.DefaultConcurrency
	}

	var indexed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, doc := range docs {
		g.Go(func() error {
			if adapter.Upsert(ctx, doc) {
				indexed.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	return indexed.Load(), failed.Load()
}
