package config

import (
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level

	ExtractsURL string
	Markets     []string // mercados por defecto para ingesta "all"

	HistoryBackend string // memory | badger | postgres
	BadgerPath     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file, using system env vars")
	}
	return FromEnv()
}

func FromEnv() Config {
	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	return Config{
		Port:        envOr("PORT", "8080"),
		HTTPTimeout: to,
		LogLevel:    lvl,

		ExtractsURL: os.Getenv("EXTRACTS_API_URL"),
		Markets:     csvList(os.Getenv("MARKETS")),

		HistoryBackend: envOr("HISTORY_BACKEND", "memory"),
		BadgerPath:     envOr("HISTORY_PATH", "./data/history"),

		PostgresHost:     envOr("POSTGRES_HOST", "localhost"),
		PostgresPort:     envOr("POSTGRES_PORT", "5432"),
		PostgresUser:     envOr("POSTGRES_USER", "mediaqa"),
		PostgresPassword: envOr("POSTGRES_PASSWORD", ""),
		PostgresDB:       envOr("POSTGRES_DB", "mediaqa"),
		PostgresSSLMode:  envOr("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: envInt("MAX_CONCURRENCY", 4),
	}
}

// DSN builds the Postgres connection string for the history backend.
func (c Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// csvList parses "FR, BE,NL" into upper-cased market codes.
func csvList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
