package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "dlms/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	LogLevel string

	// DatabaseURL selects Postgres stores and advisory-lock units of work.
	// Empty means in-memory stores with the sharded runner.
	DatabaseURL string

	Redis RedisConfig
	Kafka KafkaConfig

	// CacheTTL bounds how long registry lookups stay in Redis.
	CacheTTL time.Duration
	// TxTimeout bounds a unit of work when the caller set no deadline.
	TxTimeout time.Duration
	// SweepInterval drives the periodic license-expiry sweep in serve. Zero disables it.
	SweepInterval time.Duration
	// SeedFile is a YAML file of applicants and resources loaded at startup.
	SeedFile string
}

// RedisConfig holds connection settings for the registry cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the domain event topic settings.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load reads an optional .env file and then the environment. Variables already
// set in the environment win over the file.
func Load(envFile string) (Server, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Server{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getString("DLMS_ADDR", ":8080"),
		LogLevel:    getString("DLMS_LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedFile:    os.Getenv("DLMS_SEED_FILE"),
		Kafka: KafkaConfig{
			Brokers: platformstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:   getString("KAFKA_TOPIC", "dlms.domain-events"),
		},
	}

	var err error
	if cfg.CacheTTL, err = getDuration("DLMS_CACHE_TTL", 5*time.Minute); err != nil {
		return Server{}, err
	}
	if cfg.TxTimeout, err = getDuration("DLMS_TX_TIMEOUT", 5*time.Second); err != nil {
		return Server{}, err
	}
	if cfg.SweepInterval, err = getDuration("DLMS_SWEEP_INTERVAL", time.Hour); err != nil {
		return Server{}, err
	}
	if cfg.Redis, err = redisFromEnv(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func redisFromEnv() (RedisConfig, error) {
	cfg := RedisConfig{URL: os.Getenv("REDIS_URL")}
	var err error
	if cfg.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return cfg, err
	}
	if cfg.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return cfg, err
	}
	if cfg.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return cfg, err
	}
	if cfg.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
