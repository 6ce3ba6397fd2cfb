package ranking

import (
	"github.com/spigell/jobmatch/internal/matching"
	"github.com/spigell/jobmatch/internal/profile"
)

// Entry is one job travelling through the pipeline.
type Entry struct {
	Job *profile.Job
	// Overlap is the number of required skills the candidate has.
	Overlap int
	// Result is filled by the score stage.
	Result *matching.Result
}

// Batch is the working set of the pipeline.
type Batch struct {
	Entries []*Entry
}

// NewBatch wraps jobs, skipping nil ones.
func NewBatch(jobs []*profile.Job) *Batch {
	b := &Batch{Entries: make([]*Entry, 0, len(jobs))}
	for _, j := range jobs {
		if j == nil {
			continue
		}
		b.Entries = append(b.Entries, &Entry{Job: j})
	}
	return b
}

// Len returns the number of entries; a nil batch is empty.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Entries)
}

// Exclude removes entries for which drop returns true and returns the ids
// of the removed jobs.
func (b *Batch) Exclude(drop func(*Entry) bool) []string {
	kept := b.Entries[:0]
	excluded := make([]string, 0)
	for _, e := range b.Entries {
		if drop(e) {
			excluded = append(excluded, e.Job.ID)
			continue
		}
		kept = append(kept, e)
	}
	clear(b.Entries[len(kept):])
	b.Entries = kept
	return excluded
}

// Truncate keeps at most n entries.
func (b *Batch) Truncate(n int) []string {
	if n < 0 || len(b.Entries) <= n {
		return nil
	}
	excluded := make([]string, 0, len(b.Entries)-n)
	for _, e := range b.Entries[n:] {
		excluded = append(excluded, e.Job.ID)
	}
	clear(b.Entries[n:])
	b.Entries = b.Entries[:n]
	return excluded
}

// Results returns the scored results in batch order.
func (b *Batch) Results() []*matching.Result {
	results := make([]*matching.Result, 0, b.Len())
	if b == nil {
		return results
	}
	for _, e := range b.Entries {
		if e.Result != nil {
			results = append(results, e.Result)
		}
	}
	return results
}
