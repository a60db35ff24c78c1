package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SERMON_SERVER_PORT.
const EnvPrefix = "SERMON"

var (
	once    sync.Once
	initErr error
)

// Init initializes the configuration system
// This should be called once at application startup
func Init() error {
	once.Do(func() {
		initErr = load()
	})
	return initErr
}

func load() error {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configPath := filepath.Clean("./config/settings.yaml")
	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if err := validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration as a struct
// Init() must be called before using this
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

func isProduction() bool {
	env := viper.GetString("environment")
	return env == "production" || env == "prod"
}

// validate validates the configuration using Viper values
func validate() error {
	port := viper.GetInt("server.port")
	if port <= 0 || port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", port))
	}

	switch driver := viper.GetString("database.driver"); driver {
	case "sqlite":
	case "postgres":
		if viper.GetString("database.dsn") == "" {
			return apperrors.ConfigError("database.dsn", "required for the postgres driver")
		}
	default:
		return apperrors.ConfigError("database.driver", fmt.Sprintf("unsupported driver %q", driver))
	}

	if err := validateSecrets(); err != nil {
		return err
	}

	if viper.GetInt("processing.workers") <= 0 {
		viper.Set("processing.workers", 2)
	}
	if viper.GetInt("processing.max_queue_size") <= 0 {
		viper.Set("processing.max_queue_size", 100)
	}
	return nil
}

var placeholders = []string{
	"YOUR_KEY_HERE",
	"YOUR_SECRET_HERE",
	"YOUR_API_KEY",
	"changeme",
	"CHANGEME",
	"",
}

func isPlaceholder(v string) bool {
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	return false
}

// validateSecrets rejects placeholder secrets in production and warns elsewhere
func validateSecrets() error {
	if isPlaceholder(viper.GetString("auth.jwt_secret")) {
		if isProduction() {
			return apperrors.ConfigError("auth.jwt_secret", "cannot use placeholder values in production")
		}
		slog.Warn("auth.jwt_secret is using a placeholder value; tokens are insecure")
	}

	if isPlaceholder(viper.GetString("llm.api_key")) {
		if isProduction() {
			return apperrors.ConfigError("llm.api_key", "cannot use placeholder values in production")
		}
		slog.Warn("llm.api_key is not set; summarization calls will be rejected by the provider")
	}
	return nil
}

// Validate validates a Config struct (for testing)
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return apperrors.ConfigError("database.dsn", "required for the postgres driver")
		}
	default:
		return apperrors.ConfigError("database.driver", fmt.Sprintf("unsupported driver %q", c.Database.Driver))
	}

	if c.Processing.Workers <= 0 {
		c.Processing.Workers = 2
	}
	if c.Processing.MaxQueueSize <= 0 {
		c.Processing.MaxQueueSize = 100
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("environment", "development")

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 5*time.Minute) // large uploads
	viper.SetDefault("server.write_timeout", 5*time.Minute) // counted from the request headers, so it covers the upload too
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", "./data/sermons.db")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_connections", 10)
	viper.SetDefault("database.max_idle_connections", 5)
	viper.SetDefault("database.connection_max_lifetime", 30*time.Minute)
	viper.SetDefault("database.log_queries", false)

	// Processing defaults
	viper.SetDefault("processing.workers", 2)
	viper.SetDefault("processing.max_queue_size", 100)
	viper.SetDefault("processing.ffmpeg_path", "ffmpeg")
	viper.SetDefault("processing.ffprobe_path", "ffprobe")
	viper.SetDefault("processing.ffmpeg_timeout", 10*time.Minute)

	// Whisper defaults
	viper.SetDefault("whisper.backend", "cli")
	viper.SetDefault("whisper.binary_path", "whisper-cli")
	viper.SetDefault("whisper.model_path", "./models/ggml-base.en.bin")
	viper.SetDefault("whisper.language", "en")
	viper.SetDefault("whisper.threads", 4)
	viper.SetDefault("whisper.api_url", "https://api.openai.com/v1/audio/transcriptions")
	viper.SetDefault("whisper.model", "whisper-1")
	viper.SetDefault("whisper.max_file_size", 26214400)
	viper.SetDefault("whisper.timeout", 10*time.Minute)

	// LLM defaults
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", 2*time.Minute)

	// Summarizer defaults
	viper.SetDefault("summarizer.chunk_chars", 3500)
	viper.SetDefault("summarizer.reduce_ceiling", 12000)
	viper.SetDefault("summarizer.temperature", 0.2)
	viper.SetDefault("summarizer.map_max_tokens", 600)
	viper.SetDefault("summarizer.reduce_max_tokens", 800)

	// Storage defaults
	viper.SetDefault("storage.temp_dir", filepath.Join(os.TempDir(), "sermon-api"))
	viper.SetDefault("storage.max_temp_age", 6*time.Hour)
	viper.SetDefault("storage.cleanup_interval", 30*time.Minute)
	viper.SetDefault("storage.upload_max_bytes", 512<<20)

	// Jobs defaults
	viper.SetDefault("jobs.retention", 24*time.Hour)

	// Auth defaults
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl", 7*24*time.Hour)
	viper.SetDefault("auth.issuer", "sermon-api")

	// Redis defaults
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.prefix", "sermon:ratelimit")

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.upload_per_minute", 6)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}
