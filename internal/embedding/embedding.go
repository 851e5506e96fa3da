// Package embedding defines the narrow interface the indexer uses to turn
// text into vectors, and builds the configured adapter.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/docfind/internal/embedding/hash"
	"github.com/starford/docfind/internal/embedding/ollama"
	"github.com/starford/docfind/internal/embedding/openai"
)

// DefaultQueryPrefix is prepended to queries by model-backed providers.
const DefaultQueryPrefix = "Represent this sentence for searching relevant passages: "

// Provider names accepted by New.
const (
	ProviderHash   = "hash"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Provider maps text to fixed-dimension vectors. Documents and queries are
// embedded separately because queries may carry a retrieval prefix. Failures
// wrap apperr.ErrEmbeddingUnavailable.
type Provider interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

var (
	_ Provider = (*hash.Embedder)(nil)
	_ Provider = (*ollama.Embedder)(nil)
	_ Provider = (*openai.Embedder)(nil)
)

// Config selects and configures a Provider.
type Config struct {
	Provider          string
	Model             string
	BaseURL           string
	APIKey            string
	Dimensions        int
	QueryPrefix       string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// New builds the Provider named by cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", ProviderHash:
		return hash.New(cfg.Dimensions), nil
	case ProviderOllama:
		return ollama.New(ollama.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Dimensions:  cfg.Dimensions,
			QueryPrefix: cfg.QueryPrefix,
		}), nil
	case ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Timeout:           cfg.Timeout,
			Dimensions:        cfg.Dimensions,
			QueryPrefix:       cfg.QueryPrefix,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Provider)
	}
}
