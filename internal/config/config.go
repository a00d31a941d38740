package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Store     StoreConfig
	Log       LogConfig
	Extractor ExtractorConfig
	Pipeline  PipelineConfig
	Notify    NotifyConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings for the object-storage rulebook store.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// StoreConfig selects the rulebook store backend.
type StoreConfig struct {
	// Backend is "postgres" or "s3".
	Backend string `mapstructure:"backend"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExtractorProviderConfig holds settings for a single LLM extractor provider.
type ExtractorProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ExtractorConfig holds LLM extractor settings with primary/secondary
// provider support.
type ExtractorConfig struct {
	Primary   ExtractorProviderConfig `mapstructure:"primary"`
	Secondary ExtractorProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary extractor provider config, or nil if
// not configured.
func (e *ExtractorConfig) SecondaryConfig() *ExtractorProviderConfig {
	if e.Secondary.Provider != "" {
		return &e.Secondary
	}
	return nil
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// MaxInFlight caps concurrent rule extractions in the fan-out stage.
	MaxInFlight int `mapstructure:"max_in_flight"`
	// RunTimeoutSecs bounds a whole pipeline run; 0 disables the bound.
	RunTimeoutSecs int `mapstructure:"run_timeout_secs"`
}

// RunTimeout returns the pipeline run timeout, or 0 when unbounded.
func (p *PipelineConfig) RunTimeout() time.Duration {
	return time.Duration(p.RunTimeoutSecs) * time.Second
}

// NotifyConfig holds owner-notification settings.
type NotifyConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	OwnerEmail  string `mapstructure:"owner_email"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the RULEBOOK_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RULEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "rulebook")
	v.SetDefault("db.password", "rulebook_secret")
	v.SetDefault("db.name", "rulebook_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "rulebook-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.key_prefix", "rulebooks")

	// Store defaults
	v.SetDefault("store.backend", "postgres")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Extractor defaults
	v.SetDefault("extractor.primary.provider", "openai")
	v.SetDefault("extractor.primary.api_key", "")
	v.SetDefault("extractor.primary.default_model", "")
	v.SetDefault("extractor.primary.max_retries", 0)
	v.SetDefault("extractor.primary.timeout_secs", 120)
	v.SetDefault("extractor.secondary.provider", "")
	v.SetDefault("extractor.secondary.api_key", "")
	v.SetDefault("extractor.secondary.default_model", "")
	v.SetDefault("extractor.secondary.max_retries", 0)
	v.SetDefault("extractor.secondary.timeout_secs", 120)

	// Pipeline defaults
	v.SetDefault("pipeline.max_in_flight", 5)
	v.SetDefault("pipeline.run_timeout_secs", 0)

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@rulebook.local")
	v.SetDefault("notify.from_name", "Rulebook")
	v.SetDefault("notify.owner_email", "")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                       "RULEBOOK_SERVER_PORT",
		"server.read_timeout":               "RULEBOOK_SERVER_READ_TIMEOUT",
		"server.write_timeout":              "RULEBOOK_SERVER_WRITE_TIMEOUT",
		"server.environment":                "RULEBOOK_SERVER_ENVIRONMENT",
		"db.host":                           "RULEBOOK_DB_HOST",
		"db.port":                           "RULEBOOK_DB_PORT",
		"db.user":                           "RULEBOOK_DB_USER",
		"db.password":                       "RULEBOOK_DB_PASSWORD",
		"db.name":                           "RULEBOOK_DB_NAME",
		"db.sslmode":                        "RULEBOOK_DB_SSLMODE",
		"db.max_open":                       "RULEBOOK_DB_MAX_OPEN",
		"db.max_idle":                       "RULEBOOK_DB_MAX_IDLE",
		"s3.region":                         "RULEBOOK_S3_REGION",
		"s3.bucket":                         "RULEBOOK_S3_BUCKET",
		"s3.endpoint":                       "RULEBOOK_S3_ENDPOINT",
		"s3.access_key":                     "RULEBOOK_S3_ACCESS_KEY",
		"s3.secret_key":                     "RULEBOOK_S3_SECRET_KEY",
		"s3.key_prefix":                     "RULEBOOK_S3_KEY_PREFIX",
		"store.backend":                     "RULEBOOK_STORE_BACKEND",
		"log.level":                         "RULEBOOK_LOG_LEVEL",
		"log.format":                        "RULEBOOK_LOG_FORMAT",
		"extractor.primary.provider":        "RULEBOOK_EXTRACTOR_PRIMARY_PROVIDER",
		"extractor.primary.api_key":         "RULEBOOK_EXTRACTOR_PRIMARY_API_KEY",
		"extractor.primary.default_model":   "RULEBOOK_EXTRACTOR_PRIMARY_DEFAULT_MODEL",
		"extractor.primary.max_retries":     "RULEBOOK_EXTRACTOR_PRIMARY_MAX_RETRIES",
		"extractor.primary.timeout_secs":    "RULEBOOK_EXTRACTOR_PRIMARY_TIMEOUT_SECS",
		"extractor.secondary.provider":      "RULEBOOK_EXTRACTOR_SECONDARY_PROVIDER",
		"extractor.secondary.api_key":       "RULEBOOK_EXTRACTOR_SECONDARY_API_KEY",
		"extractor.secondary.default_model": "RULEBOOK_EXTRACTOR_SECONDARY_DEFAULT_MODEL",
		"extractor.secondary.max_retries":   "RULEBOOK_EXTRACTOR_SECONDARY_MAX_RETRIES",
		"extractor.secondary.timeout_secs":  "RULEBOOK_EXTRACTOR_SECONDARY_TIMEOUT_SECS",
		"pipeline.max_in_flight":            "RULEBOOK_PIPELINE_MAX_IN_FLIGHT",
		"pipeline.run_timeout_secs":         "RULEBOOK_PIPELINE_RUN_TIMEOUT_SECS",
		"notify.provider":                   "RULEBOOK_NOTIFY_PROVIDER",
		"notify.region":                     "RULEBOOK_NOTIFY_REGION",
		"notify.from_address":               "RULEBOOK_NOTIFY_FROM_ADDRESS",
		"notify.from_name":                  "RULEBOOK_NOTIFY_FROM_NAME",
		"notify.owner_email":                "RULEBOOK_NOTIFY_OWNER_EMAIL",
		"cors.allowed_origins":              "RULEBOOK_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// PaaS platforms set a PORT env var. Use it if RULEBOOK_SERVER_PORT is not
	// explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RULEBOOK_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		KeyPrefix: v.GetString("s3.key_prefix"),
	}
	cfg.Store = StoreConfig{
		Backend: v.GetString("store.backend"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Extractor = ExtractorConfig{
		Primary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.primary.provider"),
			APIKey:       v.GetString("extractor.primary.api_key"),
			DefaultModel: v.GetString("extractor.primary.default_model"),
			MaxRetries:   v.GetInt("extractor.primary.max_retries"),
			TimeoutSecs:  v.GetInt("extractor.primary.timeout_secs"),
		},
		Secondary: ExtractorProviderConfig{
			Provider:     v.GetString("extractor.secondary.provider"),
			APIKey:       v.GetString("extractor.secondary.api_key"),
			DefaultModel: v.GetString("extractor.secondary.default_model"),
			MaxRetries:   v.GetInt("extractor.secondary.max_retries"),
			TimeoutSecs:  v.GetInt("extractor.secondary.timeout_secs"),
		},
	}
	cfg.Pipeline = PipelineConfig{
		MaxInFlight:    v.GetInt("pipeline.max_in_flight"),
		RunTimeoutSecs: v.GetInt("pipeline.run_timeout_secs"),
	}
	if cfg.Pipeline.MaxInFlight < 1 {
		cfg.Pipeline.MaxInFlight = 1
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		OwnerEmail:  v.GetString("notify.owner_email"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	return cfg, nil
}
