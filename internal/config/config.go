// Package config loads the YAML configuration of the service and the corpus builder.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/askctx/internal/domain"
)

// Database drivers.
const (
	DriverNone  = "none"
	DriverRedis = "redis"
)

// Section sources.
const (
	SectionsFromFile  = "file"
	SectionsFromRedis = "redis"
)

// Config holds the askctx configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys means no auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // none, redis (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a store is configured.
func (d DatabaseConfig) Enabled() bool { return d.Driver == DriverRedis }

// StorageConfig holds expiry settings of persisted counters.
type StorageConfig struct {
	BudgetDailyTTLHours  int `yaml:"budget_daily_ttl_hours"`
	BudgetMonthlyTTLDays int `yaml:"budget_monthly_ttl_days"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	Cache      bool                      `yaml:"cache"` // requires a database
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	APIKey  string       `yaml:"api_key"`
	BaseURL string       `yaml:"base_url"`
	Budget  BudgetConfig `yaml:"budget"`
}

// VectorizerConfig selects the provider and the models used for sections and questions.
// Both sides must produce vectors of the same length.
type VectorizerConfig struct {
	Provider            string `yaml:"provider"`
	DocumentModel       string `yaml:"document_model"`
	QueryModel          string `yaml:"query_model"`
	Dimensions          int    `yaml:"dimensions"` // 0 = model default
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	BatchSize           int    `yaml:"batch_size"`
}

// CorpusConfig locates the embeddings file and the section texts.
type CorpusConfig struct {
	EmbeddingsPath string `yaml:"embeddings_path"` // .csv or .parquet
	SectionsSource string `yaml:"sections_source"` // file, redis (default: file)
	SectionsPath   string `yaml:"sections_path"`
}

// PromptConfig holds prompt assembly settings.
type PromptConfig struct {
	Header           string `yaml:"header"`
	Separator        string `yaml:"separator"`
	SeparatorTokens  *int   `yaml:"separator_tokens"`
	MaxSectionTokens int    `yaml:"max_section_tokens"`
}

// Domain converts the prompt settings into domain form.
func (p PromptConfig) Domain() domain.PromptConfig {
	out := domain.PromptConfig{
		Header:           p.Header,
		Separator:        p.Separator,
		MaxSectionTokens: p.MaxSectionTokens,
	}
	if p.SeparatorTokens != nil {
		out.SeparatorTokens = *p.SeparatorTokens
	}
	return out
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 64 << 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.BudgetDailyTTLHours <= 0 {
		c.Storage.BudgetDailyTTLHours = 48
	}
	if c.Storage.BudgetMonthlyTTLDays <= 0 {
		c.Storage.BudgetMonthlyTTLDays = 62
	}
	if c.Corpus.SectionsSource == "" {
		c.Corpus.SectionsSource = SectionsFromFile
	}

	vec := domain.DefaultVectorConfig()
	if c.Embedding.Vectorizer.DocumentModel == "" {
		c.Embedding.Vectorizer.DocumentModel = vec.DocumentModel
	}
	if c.Embedding.Vectorizer.QueryModel == "" {
		c.Embedding.Vectorizer.QueryModel = c.Embedding.Vectorizer.DocumentModel
	}
	if c.Embedding.Vectorizer.BatchSize <= 0 {
		c.Embedding.Vectorizer.BatchSize = 100
	}

	def := domain.DefaultPromptConfig()
	if c.Prompt.Header == "" {
		c.Prompt.Header = def.Header
	}
	if c.Prompt.Separator == "" {
		c.Prompt.Separator = def.Separator
	}
	if c.Prompt.SeparatorTokens == nil {
		n := def.SeparatorTokens
		c.Prompt.SeparatorTokens = &n
	}
	if c.Prompt.MaxSectionTokens <= 0 {
		c.Prompt.MaxSectionTokens = def.MaxSectionTokens
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverNone:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverNone, DriverRedis, c.Database.Driver)
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}

	if c.Corpus.EmbeddingsPath == "" {
		return fmt.Errorf("corpus.embeddings_path is required")
	}
	switch c.Corpus.SectionsSource {
	case SectionsFromFile:
		if c.Corpus.SectionsPath == "" {
			return fmt.Errorf("corpus.sections_path is required for sections_source %q", SectionsFromFile)
		}
	case SectionsFromRedis:
		if !c.Database.Enabled() {
			return fmt.Errorf("corpus.sections_source %q requires database.driver %q", SectionsFromRedis, DriverRedis)
		}
	default:
		return fmt.Errorf("corpus.sections_source must be %q or %q, got %q",
			SectionsFromFile, SectionsFromRedis, c.Corpus.SectionsSource)
	}

	if c.Prompt.SeparatorTokens != nil && *c.Prompt.SeparatorTokens < 0 {
		return fmt.Errorf("prompt.separator_tokens must not be negative, got %d", *c.Prompt.SeparatorTokens)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	for name, p := range c.Embedding.Providers {
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}

	v := c.Embedding.Vectorizer
	if v.Provider == "" {
		return fmt.Errorf("embedding.vectorizer.provider is required")
	}
	if _, ok := c.Embedding.Providers[v.Provider]; !ok {
		return fmt.Errorf("embedding.vectorizer.provider %q is not in embedding.providers", v.Provider)
	}
	if c.Embedding.Cache && !c.Database.Enabled() {
		return fmt.Errorf("embedding.cache requires database.driver %q", DriverRedis)
	}
	return nil
}

// Provider returns the settings of the vectorizer's provider.
func (c *Config) Provider() ProviderConfig {
	return c.Embedding.Providers[c.Embedding.Vectorizer.Provider]
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
