package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/jobmatch/internal/embedding"
)

// Chroma REST API versions. v1 is the legacy API removed in Chroma 1.0.
const (
	ChromaAPIv1 = "v1"
	ChromaAPIv2 = "v2"

	DefaultChromaTenant   = "default_tenant"
	DefaultChromaDatabase = "default_database"
)

const (
	chromaContentType   = "application/json"
	defaultCollection   = "jobmatch"
	defaultChromaRate   = 20
	maxErrorBodyPreview = 512
)

// ChromaConfig configures the Chroma backend.
type ChromaConfig struct {
	URL string
	// APIVersion selects the REST API; empty means v2.
	APIVersion string
	// Tenant and Database scope the collection on the v2 API.
	Tenant     string
	Database   string
	Collection string
	Token      string
	// RateLimit caps requests per second; zero uses the default.
	RateLimit float64
}

// Chroma talks to a Chroma server over its REST API. Embeddings are
// computed client-side so any Embedder can back the collection.
type Chroma struct {
	HTTPClient *http.Client

	baseURL    string
	apiVersion string
	tenant     string
	database   string
	collection string
	token      string
	embedder   embedding.Embedder
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu            sync.RWMutex
	collectionID  string
	collectionURL string
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaQueryResponse struct {
	IDs       [][]string         `json:"ids"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// NewChroma creates a Chroma backend.
func NewChroma(cfg ChromaConfig, embedder embedding.Embedder, logger *zap.Logger) *Chroma {
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		collection = defaultCollection
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultChromaRate
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Chroma{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		apiVersion: orDefault(strings.ToLower(cfg.APIVersion), ChromaAPIv2),
		tenant:     orDefault(cfg.Tenant, DefaultChromaTenant),
		database:   orDefault(cfg.Database, DefaultChromaDatabase),
		collection: collection,
		token:      strings.TrimSpace(cfg.Token),
		embedder:   embedder,
		limiter:    rate.NewLimiter(rate.Limit(limit), int(limit)+1),
		logger:     logger,
	}
}

func orDefault(value, def string) string {
	if value = strings.TrimSpace(value); value == "" {
		return def
	}
	return value
}

func (c *Chroma) Name() string { return "chroma" }

// collectionsPath is the collections endpoint of the configured API version.
func (c *Chroma) collectionsPath() (string, error) {
	switch c.apiVersion {
	case ChromaAPIv1:
		return "/api/v1/collections", nil
	case ChromaAPIv2:
		return fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections",
			url.PathEscape(c.tenant), url.PathEscape(c.database)), nil
	default:
		return "", fmt.Errorf("unsupported chroma api version %q", c.apiVersion)
	}
}

// Init resolves the collection id, creating a cosine-space collection when
// it does not exist yet.
func (c *Chroma) Init(ctx context.Context) error {
	if c.baseURL == "" {
		return errors.New("chroma url is required")
	}
	if c.embedder == nil {
		return errors.New("chroma store requires an embedder")
	}
	collections, err := c.collectionsPath()
	if err != nil {
		return err
	}

	c.mu.RLock()
	ready := c.collectionID != ""
	c.mu.RUnlock()
	if ready {
		return nil
	}

	body := map[string]any{
		"name":          c.collection,
		"get_or_create": true,
		"metadata": map[string]any{
			"hnsw:space":      "cosine",
			"embedding_model": c.embedder.Model(),
		},
	}

	var collection chromaCollection
	if err := c.post(ctx, collections, body, &collection); err != nil {
		return fmt.Errorf("get or create collection %q: %w", c.collection, err)
	}
	if collection.ID == "" {
		return fmt.Errorf("chroma returned empty id for collection %q", c.collection)
	}

	c.mu.Lock()
	c.collectionID = collection.ID
	c.collectionURL = collections + "/" + url.PathEscape(collection.ID)
	c.mu.Unlock()

	c.logger.Info("chroma collection ready",
		zap.String("api_version", c.apiVersion),
		zap.String("collection", c.collection),
		zap.String("collection_id", collection.ID),
	)
	return nil
}

func (c *Chroma) Upsert(ctx context.Context, doc Document) error {
	path, err := c.collectionPath()
	if err != nil {
		return err
	}

	vector, err := c.embedder.Embed(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed %s: %w", doc.ID, err)
	}

	body := map[string]any{
		"ids":        []string{doc.ID},
		"embeddings": []embedding.Vector{vector},
		"documents":  []string{doc.Text},
		"metadatas":  []map[string]any{doc.Metadata},
	}

	return c.post(ctx, path+"/upsert", body, nil)
}

func (c *Chroma) Query(ctx context.Context, text string, k int, docType DocType) (*RawResult, error) {
	path, err := c.collectionPath()
	if err != nil {
		return nil, err
	}

	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	body := map[string]any{
		"query_embeddings": []embedding.Vector{vector},
		"n_results":        k,
		"where":            map[string]any{"type": string(docType)},
		"include":          []string{"metadatas", "distances"},
	}

	var resp chromaQueryResponse
	if err := c.post(ctx, path+"/query", body, &resp); err != nil {
		return nil, err
	}

	// One query embedding was sent, so only the first row is meaningful.
	result := &RawResult{}
	if len(resp.IDs) > 0 {
		result.IDs = resp.IDs[0]
	}
	if len(resp.Distances) > 0 {
		result.Distances = resp.Distances[0]
	}
	if len(resp.Metadatas) > 0 {
		result.Metadatas = resp.Metadatas[0]
	}

	return result, nil
}

func (c *Chroma) Close() error {
	c.mu.Lock()
	c.collectionID = ""
	c.collectionURL = ""
	c.mu.Unlock()
	c.HTTPClient.CloseIdleConnections()
	return nil
}

// collectionPath returns the API path of the resolved collection.
func (c *Chroma) collectionPath() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.collectionURL == "" {
		return "", ErrNotInitialized
	}
	return c.collectionURL, nil
}

func (c *Chroma) post(ctx context.Context, path string, body any, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		preview := string(payload)
		if len(preview) > maxErrorBodyPreview {
			preview = preview[:maxErrorBodyPreview]
		}
		return fmt.Errorf("bad status: %s: %s", resp.Status, strings.TrimSpace(preview))
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Chroma) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Content-Type", chromaContentType)
	req.Header.Set("Accept", chromaContentType)
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	return req
}
