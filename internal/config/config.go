package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix"`
	SettingsTTL time.Duration `yaml:"settings_ttl"`
}

type CatalogConfig struct {
	LowStockThreshold int `yaml:"low_stock_threshold"`
}

type PricingConfig struct {
	RecomputeConcurrency int `yaml:"recompute_concurrency"`
}

type MoneyConfig struct {
	Locale         string `yaml:"locale"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Money    MoneyConfig    `yaml:"money"`
}

// NewConfig loads .env (if present), then the environment, then the YAML file
// named by CONFIG_FILE on top.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := FromEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func FromEnv() *Config {
	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.App.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = int32(getEnvInt("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(getEnvInt("DB_MIN_CONNS", 2))
	cfg.Postgres.MaxConnLifetime = getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute)
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", "shop-admin")
	cfg.Redis.SettingsTTL = getEnvDuration("SETTINGS_CACHE_TTL", time.Hour)

	cfg.Catalog.LowStockThreshold = getEnvInt("LOW_STOCK_THRESHOLD", 5)
	cfg.Pricing.RecomputeConcurrency = getEnvInt("PRICING_RECOMPUTE_CONCURRENCY", 4)

	cfg.Money.Locale = getEnv("MONEY_LOCALE", "ru")
	cfg.Money.CurrencySymbol = getEnv("MONEY_CURRENCY_SYMBOL", "₽")

	return cfg
}

func (c *Config) applyFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("invalid config file: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Postgres.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Postgres.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.Postgres.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.Postgres.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Catalog.LowStockThreshold < 0 {
		errs = append(errs, fmt.Errorf("LOW_STOCK_THRESHOLD must be non-negative, got %d", c.Catalog.LowStockThreshold))
	}
	if c.Pricing.RecomputeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("PRICING_RECOMPUTE_CONCURRENCY must be positive, got %d", c.Pricing.RecomputeConcurrency))
	}

	return errors.Join(errs...)
}

func (c PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
