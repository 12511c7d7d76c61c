// internal/common/config/config.go
package config

import (
	"fmt"

	"marketplace-compat/internal/compatibility"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Server        ServerConfig            `mapstructure:"server"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Compatibility CompatibilityConfig     `mapstructure:"compatibility"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	URL           string   `mapstructure:"url"`
	ListingsIndex string   `mapstructure:"listings_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CompatibilityConfig holds the scoring engine tables and the caching and
// ranking settings around it.
type CompatibilityConfig struct {
	// Weights is keyed by category, then dimension kind. Entries override
	// the built-in tables kind by kind.
	Weights  map[string]map[string]float64 `mapstructure:"weights"`
	Synonyms map[string]string             `mapstructure:"synonyms"`

	SynonymCredit        float64 `mapstructure:"synonym_credit"`
	SuggestionThreshold  float64 `mapstructure:"suggestion_threshold"`
	MaxSuggestions       int     `mapstructure:"max_suggestions"`
	DefaultMaxDistanceKm float64 `mapstructure:"default_max_distance_km"`
	ParallelScorers      bool    `mapstructure:"parallel_scorers"`

	ResultCacheTTL  int `mapstructure:"result_cache_ttl"`  // milliseconds
	ProfileCacheTTL int `mapstructure:"profile_cache_ttl"` // milliseconds
	RankingMaxItems int `mapstructure:"ranking_max_items"`
}

// EngineConfig converts the section into an engine configuration, layering
// configured weights over the defaults.
func (c CompatibilityConfig) EngineConfig() compatibility.Config {
	out := compatibility.DefaultConfig()

	for rawCategory, table := range c.Weights {
		category := compatibility.Category(rawCategory)
		merged, ok := out.Weights[category]
		if !ok {
			merged = compatibility.WeightTable{}
		}
		for kind, weight := range table {
			merged[compatibility.DimensionKind(kind)] = weight
		}
		out.Weights[category] = merged
	}

	for k, v := range c.Synonyms {
		out.Synonyms[k] = v
	}
	if c.SynonymCredit > 0 {
		out.SynonymCredit = c.SynonymCredit
	}
	if c.SuggestionThreshold > 0 {
		out.SuggestionThreshold = c.SuggestionThreshold
	}
	if c.MaxSuggestions > 0 {
		out.MaxSuggestions = c.MaxSuggestions
	}
	if c.DefaultMaxDistanceKm > 0 {
		out.DefaultMaxDistanceKm = c.DefaultMaxDistanceKm
	}
	out.Parallel = c.ParallelScorers
	return out
}
