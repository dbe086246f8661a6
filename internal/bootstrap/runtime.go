// Package bootstrap wires the process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"chirp/internal/cache"
	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/textpipeline"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the connections a command needs.
type Runtime struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Pipeline textpipeline.Pipeline
}

// InitRuntime connects to (and migrates) the database, connects to Redis and
// builds the text pipeline. Redis is optional: an unreachable server yields a nil client.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	rdb := cache.Connect(ctx, cfg.RedisURL)

	return &Runtime{
		DB:       db,
		Redis:    rdb,
		Pipeline: NewPipeline(cfg, rdb),
	}, nil
}

// NewPipeline selects the text pipeline for the configured provider.
// Results are cached in Redis when a client is available.
func NewPipeline(cfg *config.Config, rdb *redis.Client) textpipeline.Pipeline {
	switch cfg.TextPipelineProvider {
	case "openai":
		var p textpipeline.Pipeline = textpipeline.NewOpenAIPipeline(textpipeline.OpenAIConfig{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			Model:             cfg.OpenAIModel,
			RequestsPerSecond: cfg.TextPipelineRPS,
		})
		if rdb != nil {
			p = textpipeline.NewCached(p, rdb, cfg.TextPipelineCacheTTL())
		}
		return p
	default:
		middleware.Logger.Info("Text pipeline disabled", slog.String("provider", cfg.TextPipelineProvider))
		return textpipeline.Noop{}
	}
}
