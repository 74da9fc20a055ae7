package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`
	Lease     LeaseConfig     `yaml:"lease" mapstructure:"lease"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// TemplatesConfig points at an optional YAML template catalog.
type TemplatesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LeaseConfig configures the per-scenario compute lease.
type LeaseConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"`
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTLSecs   int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// EngineConfig holds the computation fallbacks.
type EngineConfig struct {
	DefaultEmissionFactor float64 `yaml:"default_emission_factor" mapstructure:"default_emission_factor"`
	DefaultRecoveryRate   float64 `yaml:"default_recovery_rate" mapstructure:"default_recovery_rate"`
}

// RetryConfig configures retries of transient startup failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lca.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("templates.path", "")
	v.SetDefault("lease.driver", "local")
	v.SetDefault("lease.redis_addr", "localhost:6379")
	v.SetDefault("lease.ttl_secs", 300)
	v.SetDefault("engine.default_emission_factor", 0.5)
	v.SetDefault("engine.default_recovery_rate", 70.0)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "cli" or "serve". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Store.Driver == "postgres" {
		if c.Store.MaxConns <= 0 {
			problems = append(problems, "store.max_conns must be > 0")
		}
		if c.Store.MinConns < 0 || c.Store.MinConns > c.Store.MaxConns {
			problems = append(problems, "store.min_conns must be between 0 and store.max_conns")
		}
	}

	switch c.Lease.Driver {
	case "local":
	case "redis":
		if c.Lease.RedisAddr == "" {
			problems = append(problems, "lease.redis_addr is required for the redis lease")
		}
	default:
		problems = append(problems, "lease.driver must be local or redis")
	}
	if c.Lease.TTLSecs <= 0 {
		problems = append(problems, "lease.ttl_secs must be > 0")
	}

	if c.Engine.DefaultEmissionFactor < 0 {
		problems = append(problems, "engine.default_emission_factor must be >= 0")
	}
	if c.Engine.DefaultRecoveryRate < 0 || c.Engine.DefaultRecoveryRate > 100 {
		problems = append(problems, "engine.default_recovery_rate must be between 0 and 100")
	}
	if c.Retry.MaxAttempts <= 0 {
		problems = append(problems, "retry.max_attempts must be > 0")
	}
	if c.Retry.InitialBackoffMs <= 0 {
		problems = append(problems, "retry.initial_backoff_ms must be > 0")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
