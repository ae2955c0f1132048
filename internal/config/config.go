package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Embedding provider credential is required at startup, not at first
	// request: a server without it cannot serve its core path.
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel      string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int           `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ChatModel           string        `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	UpstreamTimeout     time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`

	// Similarity search
	MatchThreshold     float64 `envconfig:"MATCH_THRESHOLD" default:"0.78"`
	MatchCount         int     `envconfig:"MATCH_COUNT" default:"5"`
	FallbackSampleSize int     `envconfig:"FALLBACK_SAMPLE_SIZE" default:"5"`

	// Embedding backfill
	BackfillBatchSize  int           `envconfig:"BACKFILL_BATCH_SIZE" default:"10"`
	BackfillBatchDelay time.Duration `envconfig:"BACKFILL_BATCH_DELAY" default:"2s"`
	BackfillMaxRetries int           `envconfig:"BACKFILL_MAX_RETRIES" default:"3"`
	BackfillInterval   time.Duration `envconfig:"BACKFILL_INTERVAL" default:"1m"`

	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"24h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SAGEPATH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
