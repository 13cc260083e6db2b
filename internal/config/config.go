package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	JWT        JWTConfig        `toml:"jwt"`
	Encryption EncryptionConfig `toml:"encryption"`
	CORS       CORSConfig       `toml:"cors"`
	RateLimit  RateLimitConfig  `toml:"rate_limit"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host                string `toml:"host"`
	Port                string `toml:"port"`
	Env                 string `toml:"env"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// DatabaseConfig selects and configures the ledger store
type DatabaseConfig struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	MaxConns      int    `toml:"max_conns"`
	MinConns      int    `toml:"min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	SQLitePath    string `toml:"sqlite_path"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret                   string `toml:"secret"`
	AccessTokenExpireMinutes int    `toml:"access_token_expire_minutes"`
	RefreshTokenExpireDays   int    `toml:"refresh_token_expire_days"`
}

// EncryptionConfig holds the key used to seal wallet keys
type EncryptionConfig struct {
	Key string `toml:"key"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// RateLimitConfig holds per-action request budgets
type RateLimitConfig struct {
	RequestsPerMinute   int `toml:"requests_per_minute"`
	LoginPerMinute      int `toml:"login_per_minute"`
	RegisterPerHour     int `toml:"register_per_hour"`
	WalletCreatePerHour int `toml:"wallet_create_per_hour"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                "8080",
			Env:                 "development",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 30,
		},
		Database: DatabaseConfig{
			Driver:        DriverPostgres,
			MaxConns:      10,
			MinConns:      2,
			RunMigrations: true,
			SQLitePath:    "aegis.db",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			PoolSize: 10,
		},
		JWT: JWTConfig{
			AccessTokenExpireMinutes: 15,
			RefreshTokenExpireDays:   7,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:   120,
			LoginPerMinute:      20,
			RegisterPerHour:     10,
			WalletCreatePerHour: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file named by
// CONFIG_FILE if set, then environment variables (a .env file is loaded
// first when present). The result is validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Server.Host, "SERVER_HOST")
	setStr(&cfg.Server.Port, "SERVER_PORT")
	setStr(&cfg.Server.Env, "SERVER_ENV")
	setInt(&cfg.Server.ReadTimeoutSeconds, "SERVER_READ_TIMEOUT_SECONDS")
	setInt(&cfg.Server.WriteTimeoutSeconds, "SERVER_WRITE_TIMEOUT_SECONDS")

	setStr(&cfg.Database.Driver, "DATABASE_DRIVER")
	setStr(&cfg.Database.DSN, "DATABASE_URL")
	setInt(&cfg.Database.MaxConns, "DATABASE_MAX_CONNS")
	setInt(&cfg.Database.MinConns, "DATABASE_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "DATABASE_RUN_MIGRATIONS")
	setStr(&cfg.Database.SQLitePath, "SQLITE_PATH")

	setStr(&cfg.Redis.Host, "REDIS_HOST")
	setStr(&cfg.Redis.Port, "REDIS_PORT")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "REDIS_POOL_SIZE")

	setStr(&cfg.JWT.Secret, "JWT_SECRET")
	setInt(&cfg.JWT.AccessTokenExpireMinutes, "JWT_ACCESS_TOKEN_EXPIRE_MINUTES")
	setInt(&cfg.JWT.RefreshTokenExpireDays, "JWT_REFRESH_TOKEN_EXPIRE_DAYS")

	setStr(&cfg.Encryption.Key, "ENCRYPTION_KEY")

	setSlice(&cfg.CORS.AllowedOrigins, "CORS_ALLOWED_ORIGINS")

	setInt(&cfg.RateLimit.RequestsPerMinute, "RATE_LIMIT_REQUESTS_PER_MINUTE")
	setInt(&cfg.RateLimit.LoginPerMinute, "RATE_LIMIT_LOGIN_PER_MINUTE")
	setInt(&cfg.RateLimit.RegisterPerHour, "RATE_LIMIT_REGISTER_PER_HOUR")
	setInt(&cfg.RateLimit.WalletCreatePerHour, "RATE_LIMIT_WALLET_CREATE_PER_HOUR")

	setStr(&cfg.Log.Level, "LOG_LEVEL")
	setStr(&cfg.Log.Format, "LOG_FORMAT")
}

// Validate checks for missing or inconsistent values and reports all of them
func (c *Config) Validate() error {
	var errs []string

	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if len(c.Encryption.Key) != 32 {
		errs = append(errs, fmt.Sprintf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(c.Encryption.Key)))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
		if c.Database.MaxConns < 1 {
			errs = append(errs, "database max_conns must be >= 1")
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			errs = append(errs, "database min_conns must be between 0 and max_conns")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, "SQLITE_PATH is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown database driver %q (valid: postgres, sqlite)", c.Database.Driver))
	}

	if c.JWT.AccessTokenExpireMinutes <= 0 || c.JWT.RefreshTokenExpireDays <= 0 {
		errs = append(errs, "JWT token lifetimes must be positive")
	}

	rl := c.RateLimit
	if rl.RequestsPerMinute <= 0 || rl.LoginPerMinute <= 0 || rl.RegisterPerHour <= 0 || rl.WalletCreatePerHour <= 0 {
		errs = append(errs, "rate limits must be positive")
	}

	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}

// Address returns the full server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// Address returns the full Redis address
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func (c *JWTConfig) AccessTokenExpire() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c *JWTConfig) RefreshTokenExpire() time.Duration {
	return time.Duration(c.RefreshTokenExpireDays) * 24 * time.Hour
}

// Helper functions. Each leaves the target untouched when the variable is
// unset or does not parse.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		*dst = v
	}
}

func setSlice(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
