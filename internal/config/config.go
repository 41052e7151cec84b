package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the talentrag configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Search    SearchConfig    `yaml:"search"`
	Answer    AnswerConfig    `yaml:"answer"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// APIKey maps one key to a caller identity.
type APIKey struct {
	Key     string `yaml:"key"`
	Role    string `yaml:"role"`    // candidate, recruiter, admin
	Subject string `yaml:"subject"` // user id used for job ownership
}

// AuthConfig holds API authentication settings. No keys means open access as candidate.
type AuthConfig struct {
	APIKeys []APIKey `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, sqlite, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // sqlite file, ":memory:" allowed
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AIConfig holds provider selection and the embedding decorator settings.
type AIConfig struct {
	Mode            string `yaml:"mode"` // auto, openai, gemini, ollama
	ProbeTimeoutSec int    `yaml:"probe_timeout_sec"`
	EmbedTimeoutSec int    `yaml:"embed_timeout_sec"`
	CooldownSec     int    `yaml:"cooldown_sec"`
	MaxInputChars   int    `yaml:"max_input_chars"`
	CacheEmbeddings bool   `yaml:"cache_embeddings"`

	// Task prefixes some embedding models expect, e.g. "search_query: " for nomic-embed-text.
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`

	Budget BudgetConfig `yaml:"budget"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Ollama OllamaConfig `yaml:"ollama"`
}

// BudgetConfig caps embedding tokens per UTC day and month. Zero means unlimited.
type BudgetConfig struct {
	DailyTokens   int64 `yaml:"daily_tokens"`
	MonthlyTokens int64 `yaml:"monthly_tokens"`
}

// OpenAIConfig holds hosted OpenAI-compatible provider settings.
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	Dimensions     int    `yaml:"dimensions"`
}

// GeminiConfig holds Gemini provider settings.
type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	Dimensions     int    `yaml:"dimensions"`
}

// OllamaConfig holds local provider settings.
type OllamaConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	Workers         int `yaml:"workers"`
	JobContextLimit int `yaml:"job_context_limit"`
}

// AnswerConfig holds answer generation settings.
type AnswerConfig struct {
	TimeoutSec  int     `yaml:"timeout_sec"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxEvidence int     `yaml:"max_evidence"`
}

// AnalyticsConfig holds counter worker settings.
type AnalyticsConfig struct {
	Buffer int `yaml:"buffer"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	Workers  int `yaml:"workers"`
	MaxBatch int `yaml:"max_batch"`
}

// LoadDotEnv loads .env from the working directory. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "talentrag.db")
	}
	if c.AI.Mode == "" {
		c.AI.Mode = "auto"
	}
	if c.AI.ProbeTimeoutSec <= 0 {
		c.AI.ProbeTimeoutSec = 5
	}
	if c.AI.EmbedTimeoutSec <= 0 {
		c.AI.EmbedTimeoutSec = 30
	}
	if c.AI.CooldownSec <= 0 {
		c.AI.CooldownSec = 60
	}
	if c.AI.MaxInputChars <= 0 {
		c.AI.MaxInputChars = 8000
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = 8
	}
	if c.Search.JobContextLimit <= 0 {
		c.Search.JobContextLimit = 3
	}
	if c.Answer.TimeoutSec <= 0 {
		c.Answer.TimeoutSec = 60
	}
	if c.Answer.Temperature <= 0 {
		c.Answer.Temperature = 0.3
	}
	if c.Answer.MaxTokens <= 0 {
		c.Answer.MaxTokens = 1000
	}
	if c.Answer.MaxEvidence <= 0 {
		c.Answer.MaxEvidence = 5
	}
	if c.Analytics.Buffer <= 0 {
		c.Analytics.Buffer = 256
	}
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = 4
	}
	if c.Ingest.MaxBatch <= 0 {
		c.Ingest.MaxBatch = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %q", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be redis, sqlite or memory, got %q", c.Database.Driver)
	}
	switch c.AI.Mode {
	case "auto":
	case "openai":
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("ai.openai.api_key is required for mode %q", c.AI.Mode)
		}
	case "gemini":
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("ai.gemini.api_key is required for mode %q", c.AI.Mode)
		}
	case "ollama":
	default:
		return fmt.Errorf("ai.mode must be auto, openai, gemini or ollama, got %q", c.AI.Mode)
	}
	if c.AI.Budget.DailyTokens < 0 || c.AI.Budget.MonthlyTokens < 0 {
		return fmt.Errorf("ai.budget token limits must not be negative")
	}
	if c.Answer.Temperature > 2 {
		return fmt.Errorf("answer.temperature must be at most 2, got %v", c.Answer.Temperature)
	}
	seen := make(map[string]bool, len(c.Auth.APIKeys))
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" {
			return fmt.Errorf("auth.api_keys[%d].key is required", i)
		}
		if seen[k.Key] {
			return fmt.Errorf("auth.api_keys[%d]: duplicate key", i)
		}
		seen[k.Key] = true
		switch strings.ToLower(k.Role) {
		case "candidate", "recruiter", "admin":
		default:
			return fmt.Errorf("auth.api_keys[%d].role must be candidate, recruiter or admin, got %q", i, k.Role)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
