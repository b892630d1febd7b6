package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	AMQP      AMQPConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env      string
	LogLevel string
}

func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

type ServerConfig struct {
	Address      string
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	MaxPoolConns int
	AutoMigrate  bool
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	URL      string
	StatsTTL time.Duration
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type AuthConfig struct {
	JWTSecret string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func (dc *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s pool_max_conns=%d",
		dc.Host,
		dc.Port,
		dc.Name,
		dc.User,
		dc.Password,
		dc.MaxPoolConns,
	)
}

// LoadDotEnv reads the given .env files (default ".env") without overriding the environment.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func NewConfig() (*Config, error) {
	serverCfg, err := newServerConfig()
	if err != nil {
		return nil, fmt.Errorf("server config error: %w", err)
	}

	dbCfg, err := newDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config error: %w", err)
	}

	mongoCfg, err := newMongoConfig()
	if err != nil {
		return nil, fmt.Errorf("mongo config error: %w", err)
	}

	redisCfg, err := newRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("redis config error: %w", err)
	}

	rateCfg, err := newRateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("rate limit config error: %w", err)
	}

	return &Config{
		App: AppConfig{
			Env:      getEnvOrDefault("APP_ENV", "production"),
			LogLevel: os.Getenv("LOG_LEVEL"),
		},
		Server:   serverCfg,
		Database: dbCfg,
		Mongo:    mongoCfg,
		Redis:    redisCfg,
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnvOrDefault("AMQP_EXCHANGE", "bookings"),
		},
		Auth:      AuthConfig{JWTSecret: os.Getenv("JWT_SECRET")},
		RateLimit: rateCfg,
	}, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Mongo.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	return nil
}

func newServerConfig() (ServerConfig, error) {
	writeTimeout, err := getDurationFromEnv("SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("write timeout parse error: %w", err)
	}

	readTimeout, err := getDurationFromEnv("SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read timeout parse error: %w", err)
	}

	idleTimeout, err := getDurationFromEnv("SERVER_IDLE_TIMEOUT", "30s")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("idle timeout parse error: %w", err)
	}

	return ServerConfig{
		Address:      getEnvOrDefault("SERVER_ADDRESS", ":5000"),
		WriteTimeout: writeTimeout,
		ReadTimeout:  readTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func newDatabaseConfig() (DatabaseConfig, error) {
	maxConns, err := strconv.Atoi(getEnvOrDefault("MAX_CONNS", "25"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("max connections parse error: %w", err)
	}

	autoMigrate, err := strconv.ParseBool(getEnvOrDefault("DB_AUTO_MIGRATE", "true"))
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("auto migrate parse error: %w", err)
	}

	return DatabaseConfig{
		Host:         getEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:         getEnvOrDefault("POSTGRES_PORT", "5432"),
		Name:         getEnvOrDefault("POSTGRES_DB", "rentals"),
		User:         getEnvOrDefault("POSTGRES_USER", "postgres"),
		Password:     getEnvOrDefault("POSTGRES_PASSWORD", ""),
		MaxPoolConns: maxConns,
		AutoMigrate:  autoMigrate,
	}, nil
}

func newMongoConfig() (MongoConfig, error) {
	timeout, err := getDurationFromEnv("MONGO_TIMEOUT", "5s")
	if err != nil {
		return MongoConfig{}, fmt.Errorf("timeout parse error: %w", err)
	}
	return MongoConfig{
		URI:      getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnvOrDefault("MONGO_DB", "marketplace"),
		Timeout:  timeout,
	}, nil
}

func newRedisConfig() (RedisConfig, error) {
	ttl, err := getDurationFromEnv("STATS_CACHE_TTL", "1m")
	if err != nil {
		return RedisConfig{}, fmt.Errorf("stats ttl parse error: %w", err)
	}
	return RedisConfig{
		URL:      os.Getenv("REDIS_URL"),
		StatsTTL: ttl,
	}, nil
}

func newRateLimitConfig() (RateLimitConfig, error) {
	requests, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_REQUESTS", "120"))
	if err != nil {
		return RateLimitConfig{}, fmt.Errorf("requests parse error: %w", err)
	}
	window, err := getDurationFromEnv("RATE_LIMIT_WINDOW", "1m")
	if err != nil {
		return RateLimitConfig{}, fmt.Errorf("window parse error: %w", err)
	}
	return RateLimitConfig{Requests: requests, Window: window}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationFromEnv(key, defaultValue string) (time.Duration, error) {
	return time.ParseDuration(getEnvOrDefault(key, defaultValue))
}
