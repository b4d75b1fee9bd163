// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// PACER PCL API
	PacerAuthURL  string
	PacerAPIRoot  string
	PacerUsername string
	PacerPassword string
	PacerTimeout  time.Duration

	// Session
	SessionMaxAge int // 秒

	// Rate Limit（req/min/user）
	RateLimitGeneral  int
	RateLimitCaseLoad int

	// RSS ingest worker
	FeedFetchInterval time.Duration
	FeedFetchTimeout  time.Duration
	FeedMaxSize       int64
	FeedMaxConcurrent int

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルが存在する場合は先に読み込む
// （既存の環境変数は上書きしない）。必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envはローカル開発用。存在しない場合のエラーは無視する。
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.PacerAuthURL = os.Getenv("PACER_AUTH_URL")
	if cfg.PacerAuthURL == "" {
		missing = append(missing, "PACER_AUTH_URL")
	}

	cfg.PacerAPIRoot = os.Getenv("PACER_API_ROOT")
	if cfg.PacerAPIRoot == "" {
		missing = append(missing, "PACER_API_ROOT")
	}

	cfg.PacerUsername = os.Getenv("PACER_USERNAME")
	if cfg.PacerUsername == "" {
		missing = append(missing, "PACER_USERNAME")
	}

	cfg.PacerPassword = os.Getenv("PACER_PASSWORD")
	if cfg.PacerPassword == "" {
		missing = append(missing, "PACER_PASSWORD")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.PacerTimeout = getEnvDuration("PACER_TIMEOUT", 30*time.Second)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitCaseLoad = getEnvInt("RATE_LIMIT_CASE_LOAD", 10)
	cfg.FeedFetchInterval = getEnvDuration("FEED_FETCH_INTERVAL", 15*time.Minute)
	cfg.FeedFetchTimeout = getEnvDuration("FEED_FETCH_TIMEOUT", 10*time.Second)
	cfg.FeedMaxSize = getEnvInt64("FEED_MAX_SIZE", 5242880)
	cfg.FeedMaxConcurrent = getEnvInt("FEED_MAX_CONCURRENT", 5)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.EqualFold(getEnvString("COOKIE_SECURE", "false"), "true")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
