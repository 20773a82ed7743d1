// Package config loads service settings from a .env file, the environment
// and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Addr            string
	StoreDriver     string
	DB              DBConfig
	JWTSecret       string
	AllowedOrigins  []string
	RedisURL        string
	VoterCacheTTL   time.Duration
	KafkaBrokers    []string
	KafkaTopic      string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DBConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	MaxOpenConns   int
	ConnectTimeout time.Duration
}

// Load reads .env (when present) and then parses args over the environment.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	} else if err != nil {
		slog.Debug("no .env file found")
	}
	return Parse(args, os.Getenv)
}

// Parse builds a Config from flags, falling back to getenv and defaults.
func Parse(args []string, getenv func(string) string) (Config, error) {
	var (
		cfg            Config
		origins        string
		kafkaBrokers   string
		requestTimeout string
	)

	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	fs := flag.NewFlagSet("pollvote", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", env("HTTP_ADDR", "0.0.0.0:8080"), "HTTP listen address")
	fs.StringVar(&cfg.StoreDriver, "store", env("STORE_DRIVER", StoreDriverPostgres), "Store driver (postgres or memory)")
	fs.StringVar(&cfg.DB.Host, "db-host", env("POSTGRES_HOST", "localhost"), "Database host")
	fs.StringVar(&cfg.DB.Port, "db-port", env("POSTGRES_PORT", "5432"), "Database port")
	fs.StringVar(&cfg.DB.User, "db-user", getenv("POSTGRES_USER"), "Database user")
	fs.StringVar(&cfg.DB.Password, "db-pass", getenv("POSTGRES_PASSWORD"), "Database password")
	fs.StringVar(&cfg.DB.Name, "db-name", getenv("POSTGRES_DB"), "Database name")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", getenv("JWT_SECRET"), "HS256 secret shared with the identity provider (prefer env)")
	fs.StringVar(&origins, "allowed-origins", env("ALLOWED_ORIGINS", "*"), "Comma separated CORS origins")
	fs.StringVar(&cfg.RedisURL, "redis-url", getenv("REDIS_URL"), "Redis URL for the voter cache (optional)")
	fs.StringVar(&kafkaBrokers, "kafka-brokers", getenv("KAFKA_BROKERS"), "Comma separated Kafka brokers for poll events (optional)")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", env("KAFKA_TOPIC", "poll-events"), "Kafka topic for poll events")
	fs.StringVar(&requestTimeout, "request-timeout", env("REQUEST_TIMEOUT", "10s"), "Per request timeout")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	var err error
	if cfg.RequestTimeout, err = time.ParseDuration(requestTimeout); err != nil {
		return Config{}, fmt.Errorf("invalid request timeout: %w", err)
	}
	if cfg.ShutdownTimeout, err = durationEnv(getenv, "SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.VoterCacheTTL, err = durationEnv(getenv, "VOTER_CACHE_TTL", 7*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DB.ConnectTimeout, err = durationEnv(getenv, "POSTGRES_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if v := getenv("POSTGRES_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, errors.New("invalid POSTGRES_MAX_OPEN_CONNS env variable")
		}
		cfg.DB.MaxOpenConns = n
	}

	cfg.AllowedOrigins = splitList(origins)
	cfg.KafkaBrokers = splitList(kafkaBrokers)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.User == "" || c.DB.Name == "" {
			return errors.New("POSTGRES_USER and POSTGRES_DB are required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
