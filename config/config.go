package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the advisor system
type Config struct {
	General      GeneralConfig      `mapstructure:"general"`
	Server       ServerConfig       `mapstructure:"server"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Telemetry    TelemetryConfig    `mapstructure:"telemetry"`
	Guardrails   GuardrailsConfig   `mapstructure:"guardrails"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Routing      RoutingConfig      `mapstructure:"routing"`
	Execution    ExecutionConfig    `mapstructure:"execution"`
	RAG          RAGConfig          `mapstructure:"rag"`
	Market       MarketConfig       `mapstructure:"market"`
	Storage      StorageConfig      `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains generative-model provider settings
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// GuardrailsConfig centralizes safety limits applied around the pipeline
type GuardrailsConfig struct {
	MaxQueryLength int `mapstructure:"max_query_length"`
	MinQueryLength int `mapstructure:"min_query_length"`

	MinAmount         float64 `mapstructure:"min_amount"`
	MaxAmount         float64 `mapstructure:"max_amount"`
	LargeAmount       float64 `mapstructure:"large_amount"`
	MaxPortfolioValue float64 `mapstructure:"max_portfolio_value"`
	MaxHoldings       int     `mapstructure:"max_holdings"`
	MinYears          int     `mapstructure:"min_years"`
	MaxYears          int     `mapstructure:"max_years"`

	ConcentrationWarning float64 `mapstructure:"concentration_warning"`
	ConcentrationError   float64 `mapstructure:"concentration_error"`
	GrowthRateWarning    float64 `mapstructure:"growth_rate_warning"`

	QueriesPerMinute int `mapstructure:"queries_per_minute"`
	QueriesPerHour   int `mapstructure:"queries_per_hour"`
	QueriesPerDay    int `mapstructure:"queries_per_day"`
}

// Normalize applies defaults for unset guardrail values.
func (g GuardrailsConfig) Normalize() GuardrailsConfig {
	if g.MaxQueryLength <= 0 {
		g.MaxQueryLength = 5000
	}
	if g.MinQueryLength <= 0 {
		g.MinQueryLength = 3
	}
	if g.MinAmount <= 0 {
		g.MinAmount = 1.0
	}
	if g.MaxAmount <= 0 {
		g.MaxAmount = 10_000_000
	}
	if g.LargeAmount <= 0 {
		g.LargeAmount = 1_000_000
	}
	if g.MaxPortfolioValue <= 0 {
		g.MaxPortfolioValue = 100_000_000
	}
	if g.MaxHoldings <= 0 {
		g.MaxHoldings = 100
	}
	if g.MinYears <= 0 {
		g.MinYears = 1
	}
	if g.MaxYears <= 0 {
		g.MaxYears = 50
	}
	if g.ConcentrationWarning <= 0 {
		g.ConcentrationWarning = 50
	}
	if g.ConcentrationError <= 0 {
		g.ConcentrationError = 95
	}
	if g.GrowthRateWarning <= 0 {
		g.GrowthRateWarning = 50
	}
	if g.QueriesPerMinute <= 0 {
		g.QueriesPerMinute = 10
	}
	if g.QueriesPerHour <= 0 {
		g.QueriesPerHour = 100
	}
	if g.QueriesPerDay <= 0 {
		g.QueriesPerDay = 500
	}
	return g
}

func (g GuardrailsConfig) Validate() error {
	if g.MinQueryLength > g.MaxQueryLength {
		return fmt.Errorf("guardrails.min_query_length cannot exceed max_query_length")
	}
	if g.ConcentrationWarning >= g.ConcentrationError {
		return fmt.Errorf("guardrails.concentration_warning must be below concentration_error")
	}
	return nil
}

// ConversationConfig controls history compaction behaviour
type ConversationConfig struct {
	MaxHistory       int `mapstructure:"max_history"`
	SummaryThreshold int `mapstructure:"summary_threshold"`
	SummaryLength    int `mapstructure:"summary_length"`
}

// Normalize applies defaults for unset conversation values.
func (c ConversationConfig) Normalize() ConversationConfig {
	if c.MaxHistory <= 0 {
		c.MaxHistory = 20
	}
	if c.SummaryThreshold <= 0 {
		c.SummaryThreshold = 10
	}
	if c.SummaryLength <= 0 {
		c.SummaryLength = 500
	}
	return c
}

// RoutingConfig selects the agent-routing strategy
type RoutingConfig struct {
	Strategy string `mapstructure:"strategy"` // keyword | llm
}

func (r RoutingConfig) Validate() error {
	switch r.Strategy {
	case "", "keyword", "llm":
		return nil
	}
	return fmt.Errorf("routing.strategy must be keyword or llm, got %q", r.Strategy)
}

// ExecutionConfig contains agent execution settings
type ExecutionConfig struct {
	Mode          string        `mapstructure:"mode"` // parallel | sequential
	AgentTimeout  time.Duration `mapstructure:"agent_timeout"`
	PhaseTimeout  time.Duration `mapstructure:"phase_timeout"`
	SharedOutputs bool          `mapstructure:"shared_outputs"`
}

// Normalize applies defaults for unset execution values.
func (e ExecutionConfig) Normalize() ExecutionConfig {
	if e.Mode == "" {
		e.Mode = "parallel"
	}
	if e.AgentTimeout <= 0 {
		e.AgentTimeout = 30 * time.Second
	}
	if e.PhaseTimeout <= 0 {
		e.PhaseTimeout = 60 * time.Second
	}
	return e
}

func (e ExecutionConfig) Validate() error {
	if e.Mode != "parallel" && e.Mode != "sequential" {
		return fmt.Errorf("execution.mode must be parallel or sequential, got %q", e.Mode)
	}
	if e.AgentTimeout > e.PhaseTimeout {
		return fmt.Errorf("execution.agent_timeout cannot exceed phase_timeout")
	}
	return nil
}

// RAGConfig contains knowledge-base retrieval settings
type RAGConfig struct {
	DataDir      string  `mapstructure:"data_dir"`
	TopK         int     `mapstructure:"top_k"`
	MinRelevance float64 `mapstructure:"min_relevance"`
}

// Normalize applies defaults for unset retrieval values.
func (r RAGConfig) Normalize() RAGConfig {
	if r.TopK <= 0 {
		r.TopK = 5
	}
	if r.MinRelevance <= 0 {
		r.MinRelevance = 0.5
	}
	return r
}

// MarketConfig contains market-data provider settings
type MarketConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings for the session store
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// PostgresConfig contains Postgres connection settings for the audit store
type PostgresConfig struct {
	URL     string `mapstructure:"url"`
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"password"`
	DBName  string `mapstructure:"dbname"`
	SSLMode string `mapstructure:"sslmode"`
}

// DSN builds a connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Pass, p.Host, port, p.DBName, ssl)
}

// Configured reports whether any Postgres connection detail was provided.
func (p PostgresConfig) Configured() bool {
	return strings.TrimSpace(p.URL) != "" || strings.TrimSpace(p.Host) != ""
}

// LoadConfig loads config from file, applying env overrides (ADVISOR_*)
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 2000)
	viper.SetDefault("llm.timeout", 30*time.Second)
	viper.SetDefault("routing.strategy", "keyword")
	viper.SetDefault("execution.mode", "parallel")
	viper.SetDefault("execution.shared_outputs", true)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ADVISOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env cover the common case.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Guardrails = cfg.Guardrails.Normalize()
	cfg.Conversation = cfg.Conversation.Normalize()
	cfg.Execution = cfg.Execution.Normalize()
	cfg.RAG = cfg.RAG.Normalize()

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Guardrails.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Routing.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Execution.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, no file needed.
// Used by tests and the chat command.
func Default() *Config {
	cfg := &Config{}
	cfg.Guardrails = cfg.Guardrails.Normalize()
	cfg.Conversation = cfg.Conversation.Normalize()
	cfg.Execution = cfg.Execution.Normalize()
	cfg.RAG = cfg.RAG.Normalize()
	cfg.Execution.SharedOutputs = true
	cfg.LLM = LLMConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 2000, Timeout: 30 * time.Second}
	cfg.Routing = RoutingConfig{Strategy: "keyword"}
	cfg.Telemetry = TelemetryConfig{Enabled: true}
	return cfg
}

