// Package config loads process configuration for cmd/propforge and
// httpapi: a .env file (via github.com/joho/godotenv, optional — its
// absence is not an error) plus typed environment variables, following
// the AMBIENT STACK's configuration section.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the typed process configuration for a propforge server/CLI
// invocation.
type Config struct {
	MaxParallelTasks    int
	TaskTimeout         time.Duration
	MaxRetriesTransient int
	BackoffBase         time.Duration
	BackoffFactor       float64
	JobDeadline         time.Duration

	ForceMemoryStore bool
	LLMMock          bool

	OpenAIAPIKey          string
	OpenAIModel           string
	SemanticScholarAPIKey string
	CrossrefMailTo        string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPAddr string
}

// Load reads an optional .env file (godotenv.Load; a missing file is not
// an error) then layers process environment variables over typed
// defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		_ = godotenv.Load() // best-effort; absence of .env is normal
	}

	cfg := Config{
		MaxParallelTasks:    envInt("PROPFORGE_MAX_PARALLEL_TASKS", 3),
		TaskTimeout:         envDuration("PROPFORGE_TASK_TIMEOUT", 300*time.Second),
		MaxRetriesTransient: envInt("PROPFORGE_MAX_RETRIES", 2),
		BackoffBase:         envDuration("PROPFORGE_BACKOFF_BASE", time.Second),
		BackoffFactor:       envFloat("PROPFORGE_BACKOFF_FACTOR", 2.0),
		JobDeadline:         envDuration("PROPFORGE_JOB_DEADLINE", 0),

		ForceMemoryStore: envBool("PROPFORGE_FORCE_MEMORY_STORE"),
		LLMMock:          envBool("PROPFORGE_LLM_MOCK"),

		OpenAIAPIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:           envString("PROPFORGE_OPENAI_MODEL", "gpt-4o-mini"),
		SemanticScholarAPIKey: os.Getenv("SEMANTIC_SCHOLAR_API_KEY"),
		CrossrefMailTo:        envString("PROPFORGE_CROSSREF_MAILTO", "propforge@example.com"),

		RedisAddr:     envString("PROPFORGE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("PROPFORGE_REDIS_PASSWORD"),
		RedisDB:       envInt("PROPFORGE_REDIS_DB", 0),

		HTTPAddr: envString("PROPFORGE_HTTP_ADDR", ":8080"),
	}
	return cfg, nil
}

// envBool treats any non-empty value other than "0"/"false" as true,
// matching spec §6.1's "presence-as-1/0" toggle convention.
func envBool(key string) bool {
	v := os.Getenv(key)
	return v != "" && v != "0" && v != "false"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
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
