// Package config loads bagplan settings from config.yaml, .env and
// BAGPLAN_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BAGPLAN_PLANNING_BAGS_PER_CARTON
const EnvPrefix = "BAGPLAN"

type Config struct {
	Planning      PlanningConfig `mapstructure:"planning"`
	InventoryFeed FeedConfig     `mapstructure:"inventory_feed"`
	Server        ServerConfig   `mapstructure:"server"`
	Store         StoreConfig    `mapstructure:"store"`
	Redis         RedisConfig    `mapstructure:"redis"`
	Log           LogConfig      `mapstructure:"log"`
	Metrics       MetricsConfig  `mapstructure:"metrics"`
	Events        EventsConfig   `mapstructure:"events"`
}

type PlanningConfig struct {
	BagsPerCarton       int64   `mapstructure:"bags_per_carton"`
	SeamAllowanceMM     float64 `mapstructure:"seam_allowance_mm"`
	MachineCommitPolicy string  `mapstructure:"machine_commit_policy"`
	FleetFile           string  `mapstructure:"fleet_file"`
	ScoreEpsilon        float64 `mapstructure:"score_epsilon"`
	OptimalRunHours     float64 `mapstructure:"optimal_run_hours"`
	LargeOrderBags      int64   `mapstructure:"large_order_bags"`
}

type FeedConfig struct {
	URL           string        `mapstructure:"url"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CodeField     string        `mapstructure:"code_field"`
	QuantityField string        `mapstructure:"quantity_field"`
	PageSize      int           `mapstructure:"page_size"`
	SnapshotFile  string        `mapstructure:"snapshot_file"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps"` // 0 disables
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
}

type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EventsConfig bounds the in-process run event log
type EventsConfig struct {
	MaxRuns int `mapstructure:"max_runs"` // 0 keeps every run
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("planning.bags_per_carton", 250)
	v.SetDefault("planning.seam_allowance_mm", 20.0)
	v.SetDefault("planning.machine_commit_policy", "always")
	v.SetDefault("planning.fleet_file", "")
	v.SetDefault("planning.score_epsilon", 0.01)
	v.SetDefault("planning.optimal_run_hours", 8.0)
	v.SetDefault("planning.large_order_bags", 50000)

	v.SetDefault("inventory_feed.url", "")
	v.SetDefault("inventory_feed.token", "")
	v.SetDefault("inventory_feed.timeout", 15*time.Second)
	v.SetDefault("inventory_feed.code_field", "Material Code")
	v.SetDefault("inventory_feed.quantity_field", "Quantity")
	v.SetDefault("inventory_feed.page_size", 100)
	v.SetDefault("inventory_feed.snapshot_file", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit_rps", 0.0)
	v.SetDefault("server.rate_limit_burst", 10)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.key_prefix", "bagplan:run:")
	v.SetDefault("store.ttl", 7*24*time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("events.max_runs", 100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load reads configuration. An explicit path must exist; otherwise
// config.yaml is looked up in ./configs and the working directory and
// may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvVariables maps the conventional unprefixed names used by
// deployment tooling onto config keys.
func bindEnvVariables(v *viper.Viper) {
	_ = v.BindEnv("inventory_feed.url", "BAGPLAN_INVENTORY_FEED_URL", "INVENTORY_FEED_URL")
	_ = v.BindEnv("inventory_feed.token", "BAGPLAN_INVENTORY_FEED_TOKEN", "INVENTORY_FEED_TOKEN")
	_ = v.BindEnv("redis.host", "BAGPLAN_REDIS_HOST", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "BAGPLAN_REDIS_PORT", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "BAGPLAN_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("server.port", "BAGPLAN_SERVER_PORT", "SERVER_PORT")
}

// Validate rejects settings the planner cannot run with
func (c *Config) Validate() error {
	var errs []string
	if c.Planning.BagsPerCarton <= 0 {
		errs = append(errs, fmt.Sprintf("planning.bags_per_carton must be positive, got %d", c.Planning.BagsPerCarton))
	}
	if c.Planning.SeamAllowanceMM < 0 {
		errs = append(errs, fmt.Sprintf("planning.seam_allowance_mm cannot be negative, got %g", c.Planning.SeamAllowanceMM))
	}
	switch strings.ToLower(c.Planning.MachineCommitPolicy) {
	case "", "always", "feasible_only":
	default:
		errs = append(errs, fmt.Sprintf("planning.machine_commit_policy must be always or feasible_only, got %q", c.Planning.MachineCommitPolicy))
	}
	if c.Planning.ScoreEpsilon < 0 {
		errs = append(errs, "planning.score_epsilon cannot be negative")
	}
	if c.Events.MaxRuns < 0 {
		errs = append(errs, "events.max_runs cannot be negative")
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, "server.rate_limit_rps cannot be negative")
	}
	if c.InventoryFeed.PageSize < 0 {
		errs = append(errs, "inventory_feed.page_size cannot be negative")
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be memory or redis, got %q", c.Store.Driver))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
