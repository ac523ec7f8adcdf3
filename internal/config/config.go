// Package config loads application configuration from a .env file and
// environment variables. Environment variables win over the .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Assistant AssistantConfig
	Firebase  FirebaseConfig
	Store     StoreConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Favorites FavoritesConfig
	Quota     QuotaConfig
	Log       LogConfig
}

// AssistantConfig points at the ViajeIA planning backend.
type AssistantConfig struct {
	URL     string
	Timeout time.Duration
}

// FirebaseConfig covers both Identity Toolkit auth and the Realtime Database.
type FirebaseConfig struct {
	APIKey      string
	DatabaseURL string
	ProjectID   string
}

// StoreConfig selects the quota ledger backend.
// Supported backends: memory, redis, postgres, firestore, rtdb.
type StoreConfig struct {
	Backend string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// FavoritesConfig locates the local favorites database file.
type FavoritesConfig struct {
	Path string
}

// QuotaConfig overrides the ledger's default limits. Zero values keep
// the built-in defaults.
type QuotaConfig struct {
	MaxPerMinute int
	MaxPerDay    int
	Timezone     string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile loads configuration from the given dotenv file, then overlays
// environment variables.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(path), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Assistant: AssistantConfig{
			URL: k.String("viajeia.api.url"),
		},
		Firebase: FirebaseConfig{
			APIKey:      k.String("firebase.api.key"),
			DatabaseURL: k.String("firebase.database.url"),
			ProjectID:   k.String("firebase.project.id"),
		},
		Store: StoreConfig{
			Backend: k.String("store.backend"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Postgres: PostgresConfig{
			Host:     k.String("postgres.host"),
			Port:     k.Int("postgres.port"),
			User:     k.String("postgres.user"),
			Password: k.String("postgres.password"),
			Name:     k.String("postgres.name"),
			SSLMode:  k.String("postgres.sslmode"),
			MaxConns: int32(k.Int("postgres.max.conns")),
		},
		Favorites: FavoritesConfig{
			Path: k.String("favorites.path"),
		},
		Quota: QuotaConfig{
			MaxPerMinute: k.Int("quota.max.per.minute"),
			MaxPerDay:    k.Int("quota.max.per.day"),
			Timezone:     k.String("quota.timezone"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Assistant.URL == "" {
		cfg.Assistant.URL = "http://localhost:8000"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.User == "" {
		cfg.Postgres.User = "viajeia"
	}
	if cfg.Postgres.Name == "" {
		cfg.Postgres.Name = "viajeia"
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxConns == 0 {
		cfg.Postgres.MaxConns = 25
	}
	if cfg.Favorites.Path == "" {
		cfg.Favorites.Path = "viajeia-favoritos.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	timeoutStr := k.String("viajeia.api.timeout")
	if timeoutStr == "" {
		timeoutStr = "60s"
	}
	cfg.Assistant.Timeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("parsing assistant timeout: %w", err)
	}

	return cfg, nil
}
