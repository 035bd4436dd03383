package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the immutable runtime configuration. It is resolved once at
// startup (defaults, then the optional TOML file, then environment
// variables) and passed into constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Addr           string
	AuthToken      string
	DataDir        string
	DatabasePath   string
	LogLevel       string
	MaxUploadBytes int64

	// Gateway
	LLMAPIKey         string
	LLMBaseURL        string
	LLMModel          string
	LLMTimeoutSeconds int
	LLMRetryAttempts  int

	// Extraction
	OCREnabled bool

	// Pipeline serialization budgets (characters)
	StageInputChars    int
	ScriptExcerptChars int

	// Imagery services for visual briefs
	StockImageKey string
	StockImageURL string
	AIImageKey    string
	AIImageURL    string

	// Job handling
	Workers   int
	QueueSize int
	JobTTL    time.Duration
}

// fileConfig is the TOML layout. Absent keys leave the defaults alone.
type fileConfig struct {
	Addr           string `toml:"addr"`
	AuthToken      string `toml:"auth_token"`
	DataDir        string `toml:"data_dir"`
	DatabasePath   string `toml:"database_path"`
	LogLevel       string `toml:"log_level"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
	Workers        int    `toml:"workers"`
	QueueSize      int    `toml:"queue_size"`
	JobTTLSeconds  int    `toml:"job_ttl_seconds"`

	LLM struct {
		APIKey         string `toml:"api_key"`
		BaseURL        string `toml:"base_url"`
		Model          string `toml:"model"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
		RetryAttempts  int    `toml:"retry_attempts"`
	} `toml:"llm"`

	Pipeline struct {
		OCREnabled         bool `toml:"ocr_enabled"`
		StageInputChars    int  `toml:"stage_input_chars"`
		ScriptExcerptChars int  `toml:"script_excerpt_chars"`
	} `toml:"pipeline"`

	Visual struct {
		StockImageKey string `toml:"stock_image_key"`
		StockImageURL string `toml:"stock_image_url"`
		AIImageKey    string `toml:"ai_image_key"`
		AIImageURL    string `toml:"ai_image_url"`
	} `toml:"visual"`
}

// Load resolves configuration. The TOML file path comes from
// PITCHFORGE_CONFIG; a missing file is not an error.
func Load() (Config, error) {
	return load(os.Getenv("PITCHFORGE_CONFIG"))
}

// LoadFile resolves configuration like Load but with an explicit TOML
// path. Unlike the PITCHFORGE_CONFIG fallback, the file must exist.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Load()
	}
	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file: %w", err)
	}
	return load(path)
}

func load(path string) (Config, error) {
	cfg := Config{
		Addr:           ":8090",
		DataDir:        defaultDataDir(),
		LogLevel:       "info",
		MaxUploadBytes: 52428800, // 50MB

		LLMBaseURL:        "",
		LLMModel:          "anthropic/claude-sonnet-4",
		LLMTimeoutSeconds: 120,
		LLMRetryAttempts:  3,

		StageInputChars:    6000,
		ScriptExcerptChars: 12000,

		Workers:   4,
		QueueSize: 100,
		JobTTL:    1 * time.Hour,
	}

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "pitchforge.db")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StageInputChars <= 0 {
		cfg.StageInputChars = 6000
	}
	if cfg.ScriptExcerptChars <= 0 {
		cfg.ScriptExcerptChars = 12000
	}
	if cfg.LLMRetryAttempts <= 0 {
		cfg.LLMRetryAttempts = 3
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.AuthToken, fc.AuthToken)
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.QueueSize > 0 {
		cfg.QueueSize = fc.QueueSize
	}
	if fc.JobTTLSeconds > 0 {
		cfg.JobTTL = time.Duration(fc.JobTTLSeconds) * time.Second
	}

	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	if fc.LLM.TimeoutSeconds > 0 {
		cfg.LLMTimeoutSeconds = fc.LLM.TimeoutSeconds
	}
	if fc.LLM.RetryAttempts > 0 {
		cfg.LLMRetryAttempts = fc.LLM.RetryAttempts
	}

	if fc.Pipeline.OCREnabled {
		cfg.OCREnabled = true
	}
	if fc.Pipeline.StageInputChars > 0 {
		cfg.StageInputChars = fc.Pipeline.StageInputChars
	}
	if fc.Pipeline.ScriptExcerptChars > 0 {
		cfg.ScriptExcerptChars = fc.Pipeline.ScriptExcerptChars
	}

	setString(&cfg.StockImageKey, fc.Visual.StockImageKey)
	setString(&cfg.StockImageURL, fc.Visual.StockImageURL)
	setString(&cfg.AIImageKey, fc.Visual.AIImageKey)
	setString(&cfg.AIImageURL, fc.Visual.AIImageURL)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = envOr("PITCHFORGE_ADDR", cfg.Addr)
	cfg.AuthToken = envOr("PITCHFORGE_AUTH_TOKEN", cfg.AuthToken)
	cfg.DataDir = envOr("PITCHFORGE_DATA_DIR", cfg.DataDir)
	cfg.DatabasePath = envOr("PITCHFORGE_DB_PATH", cfg.DatabasePath)
	cfg.LogLevel = envOr("PITCHFORGE_LOG_LEVEL", cfg.LogLevel)
	cfg.MaxUploadBytes = envInt64("PITCHFORGE_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)

	cfg.LLMAPIKey = envOr("PITCHFORGE_LLM_API_KEY", cfg.LLMAPIKey)
	cfg.LLMBaseURL = envOr("PITCHFORGE_LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMModel = envOr("PITCHFORGE_LLM_MODEL", cfg.LLMModel)
	cfg.LLMTimeoutSeconds = envInt("PITCHFORGE_LLM_TIMEOUT_SECONDS", cfg.LLMTimeoutSeconds)
	cfg.LLMRetryAttempts = envInt("PITCHFORGE_LLM_RETRY_ATTEMPTS", cfg.LLMRetryAttempts)

	cfg.OCREnabled = envBool("PITCHFORGE_OCR_ENABLED", cfg.OCREnabled)
	cfg.StageInputChars = envInt("PITCHFORGE_STAGE_INPUT_CHARS", cfg.StageInputChars)
	cfg.ScriptExcerptChars = envInt("PITCHFORGE_SCRIPT_EXCERPT_CHARS", cfg.ScriptExcerptChars)

	cfg.StockImageKey = envOr("PITCHFORGE_STOCK_IMAGE_KEY", cfg.StockImageKey)
	cfg.StockImageURL = envOr("PITCHFORGE_STOCK_IMAGE_URL", cfg.StockImageURL)
	cfg.AIImageKey = envOr("PITCHFORGE_AI_IMAGE_KEY", cfg.AIImageKey)
	cfg.AIImageURL = envOr("PITCHFORGE_AI_IMAGE_URL", cfg.AIImageURL)

	cfg.Workers = envInt("PITCHFORGE_WORKERS", cfg.Workers)
	cfg.QueueSize = envInt("PITCHFORGE_QUEUE_SIZE", cfg.QueueSize)
	cfg.JobTTL = envDuration("PITCHFORGE_JOB_TTL", cfg.JobTTL)
}

// Validate rejects configuration the daemon cannot start with.
func (c Config) Validate() error {
	if c.AuthToken == "" {
		return fmt.Errorf("PITCHFORGE_AUTH_TOKEN is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("PITCHFORGE_LLM_API_KEY is required")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("PITCHFORGE_LLM_MODEL is required")
	}
	return nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "pitchforge")
	}
	return "./data"
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
