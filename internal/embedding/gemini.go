package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatch/internal/logger"
)

const (
	defaultGeminiModel = "text-embedding-004"
	logPreviewLength   = 80
	similarityTask     = "SEMANTIC_SIMILARITY"
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text with the Gemini API.
type Gemini struct {
	models contentEmbedder
	model  string
	logger *zap.Logger
}

// NewGemini creates an embedder backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{models: client.Models, model: model, logger: logger.WithFields(log)}, nil
}

// Embed returns the embedding of text.
func (g *Gemini) Embed(ctx context.Context, text string) (Vector, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	resp, err := g.models.EmbedContent(ctx, g.model, genai.Text(text), &genai.EmbedContentConfig{TaskType: similarityTask})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	values := resp.Embeddings[0].Values
	g.logger.Debug("gemini embedding computed",
		zap.String("model", g.model),
		zap.String("text_preview", logger.TruncateForLog(text, logPreviewLength)),
		zap.Int("dimensions", len(values)),
	)

	return Vector(values), nil
}

func (g *Gemini) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
