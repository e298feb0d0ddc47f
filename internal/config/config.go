package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration. Env vars are
// bound to their literal names (no prefix) since several of them are
// fixed by the spec (GOOGLE_API_KEY, POSTGRES_*) rather than namespaced.
type Config struct {
	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port" validate:"min=1,max=65535"`
	} `mapstructure:"server"`

	LLM struct {
		GoogleAPIKey string `mapstructure:"google_api_key"`
		ChairAPIKey  string `mapstructure:"chair_api_key"`
		BaseURL      string `mapstructure:"base_url"`
	} `mapstructure:"llm"`

	Database struct {
		Type     string `mapstructure:"type" validate:"oneof=postgres sqlite"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Name     string `mapstructure:"name"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`

		SQLitePath string `mapstructure:"sqlite_path"`

		MaxConns    int    `mapstructure:"max_connections" validate:"min=1"`
		MaxIdle     int    `mapstructure:"max_idle" validate:"min=1"`
		MaxLifetime string `mapstructure:"max_lifetime"`
		MaxIdleTime string `mapstructure:"max_idle_time"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"database"`

	Embedding struct {
		Dimension int `mapstructure:"dimension" validate:"min=1"`
	} `mapstructure:"embedding"`

	Fetcher struct {
		ArxivBaseURL    string `mapstructure:"arxiv_base_url"`
		RedditUserAgent string `mapstructure:"reddit_user_agent"`
	} `mapstructure:"fetcher"`

	NATS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"nats"`

	Logging struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=json text"`
	} `mapstructure:"logging"`
}

// LoadConfig loads configuration from environment variables, binding each
// field to the literal env var name the spec fixes (GOOGLE_API_KEY,
// POSTGRES_HOST, …) rather than a derived prefix.
func LoadConfig() (*Config, error) {
	setDefaults()
	if err := bindEnv(); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.LLM.GoogleAPIKey == "" && cfg.LLM.ChairAPIKey == "" {
		return nil, fmt.Errorf("one of GOOGLE_API_KEY or CHAIR_API_KEY is required")
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnv() error {
	bindings := map[string]string{
		"server.host":              "SERVER_HOST",
		"server.port":              "SERVER_PORT",
		"llm.google_api_key":       "GOOGLE_API_KEY",
		"llm.chair_api_key":        "CHAIR_API_KEY",
		"llm.base_url":             "GENAI_BASE_URL",
		"database.host":            "POSTGRES_HOST",
		"database.port":            "POSTGRES_PORT",
		"database.name":            "POSTGRES_DB",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"embedding.dimension":      "EMBEDDING_DIMENSION",
		"fetcher.arxiv_base_url":   "ARXIV_BASE_URL",
		"fetcher.reddit_user_agent": "REDDIT_USER_AGENT",
		"nats.url":                 "NATS_URL",
		"logging.level":            "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// setDefaults sets default configuration values, matching the literal
// defaults the spec names for each variable.
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.type", "postgres")
	viper.SetDefault("database.host", "db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "postgres")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.sqlite_path", "./topicfind.db")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle", 10)
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.max_idle_time", "30m")
	viper.SetDefault("database.auto_migrate", true)

	viper.SetDefault("embedding.dimension", 768)

	viper.SetDefault("fetcher.arxiv_base_url", "https://export.arxiv.org/api/query")
	viper.SetDefault("fetcher.reddit_user_agent", "topicfind-backend/1.0 (topic discovery service)")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// IsPostgres reports whether the configured database backend is Postgres.
func (c *Config) IsPostgres() bool {
	return c.Database.Type == "postgres"
}

// DatabaseDSN returns the driver-appropriate connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Type == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.Name, c.Database.User, c.Database.Password)
}
