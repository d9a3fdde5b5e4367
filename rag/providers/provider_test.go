package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/docentai/docent/rag/config"
)

func TestNewChatModelOllama(t *testing.T) {
	cfg := config.Default()

	m, err := NewChatModel(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewChatModel: %v", err)
	}
	if m == nil {
		t.Fatal("expected a chat model")
	}
}

func TestNewEmbeddingModelOllama(t *testing.T) {
	cfg := config.Default()

	e, err := NewEmbeddingModel(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewEmbeddingModel: %v", err)
	}
	if e == nil {
		t.Fatal("expected an embedder")
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderOpenAI
	cfg.APIKey = ""

	if _, err := NewChatModel(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("NewChatModel error = %v, want API key error", err)
	}
	if _, err := NewEmbeddingModel(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("NewEmbeddingModel error = %v, want API key error", err)
	}
}

func TestUnsupportedProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "anthropic"

	if _, err := NewChatModel(context.Background(), cfg); err == nil {
		t.Error("NewChatModel should reject unknown providers")
	}
	if _, err := NewEmbeddingModel(context.Background(), cfg); err == nil {
		t.Error("NewEmbeddingModel should reject unknown providers")
	}
}
