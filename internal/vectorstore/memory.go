package vectorstore

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/spigell/jobmatch/internal/embedding"
)

type memoryEntry struct {
	doc    Document
	vector embedding.Vector
}

// Memory is an in-process index using cosine distance. Its contents live
// as long as the process.
type Memory struct {
	embedder embedding.Embedder

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an in-process store over embedder.
func NewMemory(embedder embedding.Embedder) *Memory {
	return &Memory{embedder: embedder}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Init(context.Context) error {
	if m.embedder == nil {
		return errors.New("memory store requires an embedder")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]memoryEntry)
	}
	return nil
}

func (m *Memory) Upsert(ctx context.Context, doc Document) error {
	vector, err := m.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return ErrNotInitialized
	}

	m.entries[doc.ID] = memoryEntry{doc: doc, vector: vector}
	return nil
}

func (m *Memory) Query(ctx context.Context, text string, k int, docType DocType) (*RawResult, error) {
	query, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	type hit struct {
		id       string
		distance float64
		metadata map[string]any
	}

	m.mu.RLock()
	if m.entries == nil {
		m.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	hits := make([]hit, 0, len(m.entries))
	for id, entry := range m.entries {
		if entry.doc.Type != docType {
			continue
		}
		hits = append(hits, hit{
			id:       id,
			distance: embedding.CosineDistance(query, entry.vector),
			metadata: maps.Clone(entry.doc.Metadata),
		})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id < hits[j].id
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	result := &RawResult{
		IDs:       make([]string, len(hits)),
		Distances: make([]float64, len(hits)),
		Metadatas: make([]map[string]any, len(hits)),
	}
	for i, h := range hits {
		result.IDs[i] = h.id
		result.Distances[i] = h.distance
		result.Metadatas[i] = h.metadata
	}
	return result, nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	return nil
}
