// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSessionSecret is only acceptable outside production.
const DefaultSessionSecret = "change-me-session-secret"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBPath     string `mapstructure:"DB_PATH"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisURL string `mapstructure:"REDIS_URL"`

	SessionSecret          string `mapstructure:"SESSION_SECRET"`
	SessionLifetimeMinutes int    `mapstructure:"SESSION_LIFETIME_MINUTES"`

	UploadDir              string `mapstructure:"UPLOAD_DIR"`
	MaxUploadSizeBytes     int64  `mapstructure:"MAX_UPLOAD_SIZE_BYTES"`
	AllowedImageExtensions string `mapstructure:"ALLOWED_IMAGE_EXTENSIONS"`

	TextPipelineProvider        string  `mapstructure:"TEXT_PIPELINE_PROVIDER"`
	OpenAIAPIKey                string  `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL               string  `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel                 string  `mapstructure:"OPENAI_MODEL"`
	TextPipelineTimeoutSeconds  int     `mapstructure:"TEXT_PIPELINE_TIMEOUT_SECONDS"`
	TextPipelineRPS             float64 `mapstructure:"TEXT_PIPELINE_RPS"`
	TextPipelineCacheTTLMinutes int     `mapstructure:"TEXT_PIPELINE_CACHE_TTL_MINUTES"`

	FeatureFlags string `mapstructure:"FEATURE_FLAGS"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

func setDefaults() {
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_PATH", "tweets.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "chirp")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "chirp")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("SESSION_SECRET", DefaultSessionSecret)
	viper.SetDefault("SESSION_LIFETIME_MINUTES", 30)
	viper.SetDefault("UPLOAD_DIR", "static/uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE_BYTES", 2*1024*1024)
	viper.SetDefault("ALLOWED_IMAGE_EXTENSIONS", "png,jpg,jpeg,gif")
	viper.SetDefault("TEXT_PIPELINE_PROVIDER", "none")
	viper.SetDefault("OPENAI_API_KEY", "")
	viper.SetDefault("OPENAI_BASE_URL", "")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("TEXT_PIPELINE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("TEXT_PIPELINE_RPS", 2.0)
	viper.SetDefault("TEXT_PIPELINE_CACHE_TTL_MINUTES", 60)
	viper.SetDefault("FEATURE_FLAGS", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()
	setDefaults()

	_ = viper.ReadInConfig()

	env := strings.ToLower(strings.TrimSpace(viper.GetString("APP_ENV")))
	if env == "" {
		env = "development"
	}
	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	c.TextPipelineProvider = strings.ToLower(strings.TrimSpace(c.TextPipelineProvider))
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// SessionLifetime returns the sliding session lifetime.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.SessionLifetimeMinutes) * time.Minute
}

// TextPipelineTimeout bounds a single pipeline run.
func (c *Config) TextPipelineTimeout() time.Duration {
	return time.Duration(c.TextPipelineTimeoutSeconds) * time.Second
}

// TextPipelineCacheTTL returns how long pipeline results stay cached.
func (c *Config) TextPipelineCacheTTL() time.Duration {
	return time.Duration(c.TextPipelineCacheTTLMinutes) * time.Minute
}

// ImageExtensions returns the allowed upload extensions, lower-cased and without dots.
func (c *Config) ImageExtensions() []string {
	var out []string
	for _, ext := range strings.Split(c.AllowedImageExtensions, ",") {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionLifetimeMinutes <= 0 {
		return errors.New("SESSION_LIFETIME_MINUTES must be positive")
	}
	if c.MaxUploadSizeBytes <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_BYTES must be positive")
	}
	if len(c.ImageExtensions()) == 0 {
		return errors.New("ALLOWED_IMAGE_EXTENSIONS must list at least one extension")
	}
	if c.UploadDir == "" {
		return errors.New("UPLOAD_DIR is required")
	}

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.TextPipelineProvider {
	case "", "none":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when TEXT_PIPELINE_PROVIDER=openai")
		}
		if c.TextPipelineTimeoutSeconds <= 0 {
			return errors.New("TEXT_PIPELINE_TIMEOUT_SECONDS must be positive")
		}
	default:
		return fmt.Errorf("unsupported TEXT_PIPELINE_PROVIDER %q", c.TextPipelineProvider)
	}

	if c.IsProduction() {
		if c.SessionSecret == DefaultSessionSecret {
			return errors.New("SESSION_SECRET must be changed from the default value in production")
		}
		if len(c.SessionSecret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
	} else if len(c.SessionSecret) < 32 {
		log.Println("WARNING: SESSION_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
