package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                       "5000",
		Env:                        "development",
		DBDriver:                   "sqlite",
		DBPath:                     "tweets.db",
		SessionSecret:              "secure-secret-at-least-32-chars-long",
		SessionLifetimeMinutes:     30,
		UploadDir:                  "static/uploads",
		MaxUploadSizeBytes:         2 << 20,
		AllowedImageExtensions:     "png,jpg,jpeg,gif",
		TextPipelineProvider:       "none",
		TextPipelineTimeoutSeconds: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing session secret", func(c *Config) { c.SessionSecret = "" }, true},
		{"zero session lifetime", func(c *Config) { c.SessionLifetimeMinutes = 0 }, true},
		{"no image extensions", func(c *Config) { c.AllowedImageExtensions = " , " }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"postgres without host", func(c *Config) { c.DBDriver = "postgres"; c.DBHost = "" }, true},
		{"openai without key", func(c *Config) { c.TextPipelineProvider = "openai" }, true},
		{"openai with key", func(c *Config) { c.TextPipelineProvider = "openai"; c.OpenAIAPIKey = "sk-test" }, false},
		{"production with default secret", func(c *Config) { c.Env = "production"; c.SessionSecret = DefaultSessionSecret }, true},
		{"production with short secret", func(c *Config) { c.Env = "prod"; c.SessionSecret = "short" }, true},
		{"production with strong secret", func(c *Config) { c.Env = "production" }, false},
		{"production postgres with default password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.DBHost = "db"
			c.DBName = "chirp"
			c.DBPassword = "password"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ImageExtensions(t *testing.T) {
	c := &Config{AllowedImageExtensions: " PNG, .jpg,jpeg ,,gif"}
	assert.Equal(t, []string{"png", "jpg", "jpeg", "gif"}, c.ImageExtensions())
}

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "tweets.db", c.DBPath)
	assert.Equal(t, int64(2*1024*1024), c.MaxUploadSizeBytes)
	assert.Equal(t, 30*time.Minute, c.SessionLifetime())
	assert.Equal(t, 10*time.Second, c.TextPipelineTimeout())
	assert.Equal(t, "static/uploads", c.UploadDir)
}
