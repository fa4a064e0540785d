package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string          `mapstructure:"port"`
	Env          string          `mapstructure:"env"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	CheckUpdates bool            `mapstructure:"check_updates"`
	AdminKeys    []string        `mapstructure:"admin_keys"`
	DebugAddr    string          `mapstructure:"debug_addr"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type RegistryConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	PremiumThreshold float64       `mapstructure:"premium_threshold"`
	Cache            CacheConfig   `mapstructure:"cache"`
}

// Cache drivers accepted in registry.cache.driver.
const (
	CacheFile   = "file"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

var cacheDrivers = []string{CacheFile, CacheMemory, CacheRedis, CacheSQLite}

type CacheConfig struct {
	Driver string        `mapstructure:"driver"`
	Path   string        `mapstructure:"path"`
	TTL    time.Duration `mapstructure:"ttl"`
	Watch  bool          `mapstructure:"watch"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type SQLiteConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TelemetryConfig struct {
	Tracing     bool   `mapstructure:"tracing"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads config.yaml from the usual locations, then the environment.
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load reads configuration from file (when non-empty) or the default search
// path. Environment variables override file values, with "." replaced by
// "_" (REGISTRY_CACHE_DRIVER).
func Load(file string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.rate_limit.requests_per_second", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)
	v.SetDefault("server.check_updates", false)
	v.SetDefault("server.admin_keys", []string{})
	v.SetDefault("server.debug_addr", "")
	v.SetDefault("registry.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("registry.timeout", "30s")
	v.SetDefault("registry.premium_threshold", 0.00001)
	v.SetDefault("registry.cache.driver", CacheFile)
	v.SetDefault("registry.cache.path", ".cache/model-selector/models.json")
	v.SetDefault("registry.cache.ttl", "0s")
	v.SetDefault("registry.cache.watch", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "model-selector:models")
	v.SetDefault("sqlite.dsn", "model-selector.db")
	v.SetDefault("telemetry.tracing", false)
	v.SetDefault("telemetry.service_name", "model-selector")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// secrets may be indirected through the environment
	if envVar, ok := strings.CutPrefix(cfg.Redis.Password, "ENV:"); ok {
		cfg.Redis.Password = os.Getenv(envVar)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("server.rate_limit values must not be negative"))
	}
	if c.Registry.BaseURL == "" {
		errs = append(errs, errors.New("registry.base_url is required"))
	}
	if c.Registry.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("registry.timeout must be positive, got %s", c.Registry.Timeout))
	}
	if c.Registry.PremiumThreshold <= 0 {
		errs = append(errs, fmt.Errorf("registry.premium_threshold must be positive, got %v", c.Registry.PremiumThreshold))
	}
	if c.Registry.Cache.TTL < 0 {
		errs = append(errs, errors.New("registry.cache.ttl must not be negative"))
	}
	if !slices.Contains(cacheDrivers, c.Registry.Cache.Driver) {
		errs = append(errs, fmt.Errorf("registry.cache.driver %q is not one of %s", c.Registry.Cache.Driver, strings.Join(cacheDrivers, ", ")))
	}
	if c.Registry.Cache.Watch && c.Registry.Cache.Driver != CacheFile {
		errs = append(errs, errors.New("registry.cache.watch requires the file driver"))
	}
	return errors.Join(errs...)
}
