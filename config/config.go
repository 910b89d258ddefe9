// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	TMDB      TMDBConfig
	Localize  LocalizeConfig
	Recommend RecommendConfig
	LogLevel  string
	// SentinelUser is the identity attributed to requests without an
	// X-User-ID header.
	SentinelUser string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	// RateLimitRPS and RateLimitBurst bound requests per user id.
	RateLimitRPS   float64
	RateLimitBurst int
}

// DatabaseConfig holds embedded database configuration.
type DatabaseConfig struct {
	Path string
}

// TMDBConfig holds catalog API configuration.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
	// RequestsPerSecond limits outbound catalog calls.
	RequestsPerSecond float64
	Burst             int
}

// LocalizeConfig holds localization overlay configuration.
type LocalizeConfig struct {
	// TitleTTL is how long a fetched (movie, language) title stays fresh.
	TitleTTL time.Duration
}

// RecommendConfig holds the recommendation filter defaults.
type RecommendConfig struct {
	Mode                  string
	MinRating             float64
	MinVoteCount          int
	MaxVoteCount          int
	MinReleaseDate        string
	ExcludeGenres         []string
	RequireLocalizedTitle bool
	ResultCount           int
}

// Load builds a Config from environment variables, applying defaults for
// everything except the TMDB API key, which is required.
func Load() (*Config, error) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8080"),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
			RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
			RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "rewatch.db"),
		},
		TMDB: TMDBConfig{
			APIKey:            apiKey,
			BaseURL:           getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			RequestsPerSecond: getEnvFloat("TMDB_RPS", 4),
			Burst:             getEnvInt("TMDB_BURST", 8),
		},
		Localize: LocalizeConfig{
			TitleTTL: getEnvDuration("LOCALIZE_TITLE_TTL", 5*time.Minute),
		},
		Recommend: RecommendConfig{
			Mode:                  getEnv("RECOMMEND_MODE", "popular"),
			MinRating:             getEnvFloat("RECOMMEND_MIN_RATING", 7.2),
			MinVoteCount:          getEnvInt("RECOMMEND_MIN_VOTE_COUNT", 500),
			MaxVoteCount:          getEnvInt("RECOMMEND_MAX_VOTE_COUNT", 5000),
			MinReleaseDate:        getEnv("RECOMMEND_MIN_RELEASE_DATE", "2010-01-01"),
			ExcludeGenres:         splitList(getEnv("RECOMMEND_EXCLUDE_GENRES", "Animation,Music,Documentary")),
			RequireLocalizedTitle: getEnvBool("RECOMMEND_REQUIRE_LOCALIZED_TITLE", false),
			ResultCount:           getEnvInt("RECOMMEND_RESULT_COUNT", 12),
		},
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SentinelUser: getEnv("SENTINEL_USER", "anonymous"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
