package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Environment  string           `mapstructure:"environment"`
	Server       ServerConfig     `mapstructure:"server"`
	Database     DatabaseConfig   `mapstructure:"database"`
	Processing   ProcessingConfig `mapstructure:"processing"`
	Whisper      WhisperConfig    `mapstructure:"whisper"`
	LLM          LLMConfig        `mapstructure:"llm"`
	Summarizer   SummarizerConfig `mapstructure:"summarizer"`
	Storage      StorageConfig    `mapstructure:"storage"`
	Jobs         JobsConfig       `mapstructure:"jobs"`
	Auth         AuthConfig       `mapstructure:"auth"`
	Redis        RedisConfig      `mapstructure:"redis"`
	RateLimiting RateLimitConfig  `mapstructure:"rate_limiting"`
	Logging      LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
}

// DatabaseConfig contains database settings. Driver is "sqlite" (Path) or
// "postgres" (DSN).
type DatabaseConfig struct {
	Driver                string        `mapstructure:"driver"`
	Path                  string        `mapstructure:"path"`
	DSN                   string        `mapstructure:"dsn"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
	LogQueries            bool          `mapstructure:"log_queries"`
}

// ProcessingConfig contains audio processing settings
type ProcessingConfig struct {
	Workers       int           `mapstructure:"workers"`
	MaxQueueSize  int           `mapstructure:"max_queue_size"`
	FFmpegPath    string        `mapstructure:"ffmpeg_path"`
	FFprobePath   string        `mapstructure:"ffprobe_path"`
	FFmpegTimeout time.Duration `mapstructure:"ffmpeg_timeout"`
}

// WhisperConfig selects the speech-to-text backend
type WhisperConfig struct {
	Backend     string        `mapstructure:"backend"` // cli | openai
	BinaryPath  string        `mapstructure:"binary_path"`
	ModelPath   string        `mapstructure:"model_path"`
	Language    string        `mapstructure:"language"`
	Threads     int           `mapstructure:"threads"`
	APIURL      string        `mapstructure:"api_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxFileSize int64         `mapstructure:"max_file_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// LLMConfig contains the chat completion provider settings
type LLMConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SummarizerConfig tunes the map-reduce summary
type SummarizerConfig struct {
	ChunkChars      int     `mapstructure:"chunk_chars"`
	ReduceCeiling   int     `mapstructure:"reduce_ceiling"`
	Temperature     float64 `mapstructure:"temperature"`
	MapMaxTokens    int     `mapstructure:"map_max_tokens"`
	ReduceMaxTokens int     `mapstructure:"reduce_max_tokens"`
}

// StorageConfig contains temporary upload storage settings
type StorageConfig struct {
	TempDir         string        `mapstructure:"temp_dir"`
	MaxTempAge      time.Duration `mapstructure:"max_temp_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	UploadMaxBytes  int64         `mapstructure:"upload_max_bytes"`
}

// JobsConfig controls how long finished jobs stay pollable
type JobsConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// RedisConfig is optional; an empty Addr disables Redis-backed features
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	UploadPerMinute int  `mapstructure:"upload_per_minute"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}
