// Package providers constructs chat and embedding models for the configured
// inference backend.
package providers

import (
	"context"
	"fmt"

	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	ollamaModel "github.com/cloudwego/eino-ext/components/model/ollama"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"github.com/docentai/docent/rag/config"
)

// NewChatModel creates the generation model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg *config.Settings) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollamaModel.NewChatModel(ctx, &ollamaModel.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.ChatModel,
			Timeout: cfg.Timeout,
			Options: &ollamaModel.Options{
				Temperature: cfg.Temperature,
				NumPredict:  cfg.MaxTokens,
			},
		})
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key is required for the openai provider")
		}
		mc := &openaiModel.ChatModelConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.ChatModel,
			Timeout:     cfg.Timeout,
			Temperature: &cfg.Temperature,
		}
		if cfg.MaxTokens > 0 {
			mc.MaxTokens = &cfg.MaxTokens
		}
		return openaiModel.NewChatModel(ctx, mc)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}

// NewEmbeddingModel creates the embedding model for cfg.Provider.
func NewEmbeddingModel(ctx context.Context, cfg *config.Settings) (einoEmbedding.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbedModel,
			Timeout: cfg.Timeout,
		})
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("API key is required for the openai provider")
		}
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.EmbedModel,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
