package bootstrap

import (
	"testing"

	"chirp/internal/config"
	"chirp/internal/textpipeline"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipeline(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	base := config.Config{
		OpenAIAPIKey:                "sk-test",
		OpenAIModel:                 "gpt-4o-mini",
		TextPipelineCacheTTLMinutes: 5,
	}

	none := base
	none.TextPipelineProvider = "none"
	assert.IsType(t, textpipeline.Noop{}, NewPipeline(&none, rdb))

	openai := base
	openai.TextPipelineProvider = "openai"
	assert.IsType(t, &textpipeline.Cached{}, NewPipeline(&openai, rdb))
	assert.IsType(t, &textpipeline.OpenAIPipeline{}, NewPipeline(&openai, nil))
}

func TestInitRuntimeSQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DBDriver:             "sqlite",
		DBPath:               dir + "/chirp.db",
		UploadDir:            dir + "/uploads",
		TextPipelineProvider: "none",
	}

	rt, err := InitRuntime(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := rt.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	assert.NotNil(t, rt.DB)
	assert.Nil(t, rt.Redis)
	assert.DirExists(t, cfg.UploadDir)
	assert.True(t, rt.DB.Migrator().HasTable("tweets"))
}
