package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Provider names accepted by DOCENT_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Vector store backends accepted by DOCENT_VECTOR_STORE.
const (
	StoreLocal = "local"
	StoreRedis = "redis"
)

// Settings holds every tunable the assistant recognizes. Each field is
// overridable through the environment variable named in its comment.
type Settings struct {
	// Provider selects the inference backend. DOCENT_PROVIDER
	Provider string `validate:"oneof=ollama openai"`

	// BaseURL is the inference service endpoint. DOCENT_BASE_URL
	BaseURL string `validate:"required,url"`

	// APIKey authenticates against OpenAI-compatible services. DOCENT_API_KEY
	APIKey string

	// ChatModel is the generation model name. DOCENT_CHAT_MODEL
	ChatModel string `validate:"required"`

	// EmbedModel is the embedding model name. DOCENT_EMBED_MODEL
	EmbedModel string `validate:"required"`

	// VectorStore selects the index backend. DOCENT_VECTOR_STORE
	VectorStore string `validate:"oneof=local redis"`

	// IndexPath is where the local index persists. DOCENT_INDEX_PATH
	IndexPath string `validate:"required"`

	// Collection is the index namespace documents live in. DOCENT_COLLECTION
	Collection string `validate:"required"`

	// RedisAddr is the redis host:port for the redis backend. DOCENT_REDIS_ADDR
	RedisAddr string

	// ChunkSize is the maximum chunk length in runes. DOCENT_CHUNK_SIZE
	ChunkSize int `validate:"gt=0"`

	// ChunkOverlap is the exact overlap between consecutive chunks. DOCENT_CHUNK_OVERLAP
	ChunkOverlap int `validate:"gte=0,ltfield=ChunkSize"`

	// TopK is how many chunks a query retrieves. DOCENT_TOP_K
	TopK int `validate:"gt=0"`

	// Temperature controls generation randomness. DOCENT_TEMPERATURE
	Temperature float32 `validate:"gte=0,lte=2"`

	// MaxTokens caps generated tokens, 0 leaves the model default. DOCENT_MAX_TOKENS
	MaxTokens int `validate:"gte=0"`

	// PreserveLayout enables layout-aware PDF extraction. DOCENT_PRESERVE_LAYOUT
	PreserveLayout bool

	// HeadingScale is the multiplier over the page-median font size above
	// which a line counts as a heading. DOCENT_HEADING_SCALE
	HeadingScale float64 `validate:"gt=0"`

	// Timeout bounds each request to an external service. DOCENT_TIMEOUT
	Timeout time.Duration `validate:"gt=0"`
}

// Default returns the built-in settings, without environment overrides.
func Default() *Settings {
	return &Settings{
		Provider:       ProviderOllama,
		BaseURL:        "http://localhost:11434",
		ChatModel:      "llama2",
		EmbedModel:     "nomic-embed-text",
		VectorStore:    StoreLocal,
		IndexPath:      "./docent_index",
		Collection:     "documents",
		RedisAddr:      "localhost:6379",
		ChunkSize:      1000,
		ChunkOverlap:   200,
		TopK:           4,
		Temperature:    0.7,
		MaxTokens:      0,
		PreserveLayout: true,
		HeadingScale:   1.2,
		Timeout:        120 * time.Second,
	}
}

// Load reads .env when present, applies environment overrides on top of the
// defaults, and validates the result.
func Load() (*Settings, error) {
	_ = godotenv.Load()

	s := Default()
	s.Provider = strings.ToLower(getEnvString("DOCENT_PROVIDER", s.Provider))
	s.BaseURL = getEnvString("DOCENT_BASE_URL", s.BaseURL)
	s.APIKey = getEnvString("DOCENT_API_KEY", s.APIKey)
	s.ChatModel = getEnvString("DOCENT_CHAT_MODEL", s.ChatModel)
	s.EmbedModel = getEnvString("DOCENT_EMBED_MODEL", s.EmbedModel)
	s.VectorStore = strings.ToLower(getEnvString("DOCENT_VECTOR_STORE", s.VectorStore))
	s.IndexPath = getEnvString("DOCENT_INDEX_PATH", s.IndexPath)
	s.Collection = getEnvString("DOCENT_COLLECTION", s.Collection)
	s.RedisAddr = getEnvString("DOCENT_REDIS_ADDR", s.RedisAddr)
	s.ChunkSize = getEnvInt("DOCENT_CHUNK_SIZE", s.ChunkSize)
	s.ChunkOverlap = getEnvInt("DOCENT_CHUNK_OVERLAP", s.ChunkOverlap)
	s.TopK = getEnvInt("DOCENT_TOP_K", s.TopK)
	s.Temperature = getEnvFloat32("DOCENT_TEMPERATURE", s.Temperature)
	s.MaxTokens = getEnvInt("DOCENT_MAX_TOKENS", s.MaxTokens)
	s.PreserveLayout = getEnvBool("DOCENT_PRESERVE_LAYOUT", s.PreserveLayout)
	s.HeadingScale = getEnvFloat64("DOCENT_HEADING_SCALE", s.HeadingScale)
	s.Timeout = getEnvDuration("DOCENT_TIMEOUT", s.Timeout)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for internal consistency.
func (s *Settings) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnvString reads a string from environment variable
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer from environment variable
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean from environment variable
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvFloat32 reads a float32 from environment variable
func getEnvFloat32(key string, defaultVal float32) float32 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 32); err == nil {
			return float32(f)
		}
	}
	return defaultVal
}

// getEnvFloat64 reads a float64 from environment variable
func getEnvFloat64(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration from environment variable
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
