// Package config は環境変数からのアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Auth
	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	// CORS
	AllowedOrigins []string

	// Rate Limit
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Request admission
	BodyLimitBytes   int64
	RequestTimeout   time.Duration
	TrustProxy       bool
	SanitizeAllowKey []string // パラメータ重複を許可するクエリキー

	// Redis（レート制限カウンタの共有ストア。未設定の場合はメモリストアを使用）
	RedisAddr string

	// Uploads
	UploadDir     string
	UploadFileDir string
	MaxFileBytes  int64

	// Server
	ServerPort string
	BaseURL    string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、不足しているすべての変数名を含むエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	required := []struct {
		name string
		dst  *string
	}{
		{"DB_HOST", &cfg.DBHost},
		{"DB_USER", &cfg.DBUser},
		{"DB_PASSWORD", &cfg.DBPassword},
		{"DB_NAME", &cfg.DBName},
		{"DB_PORT", &cfg.DBPort},
		{"JWT_SECRET", &cfg.JWTSecret},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.name)
		if *r.dst == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	cfg.AllowedOrigins = splitList(getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))
	cfg.RateLimitMax = getEnvInt("RATE_LIMIT_MAX", 200)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute)
	cfg.BodyLimitBytes = getEnvInt64("BODY_LIMIT_BYTES", 1<<20)
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	cfg.TrustProxy = getEnvBool("TRUST_PROXY", false)
	cfg.SanitizeAllowKey = splitList(getEnvString("QUERY_DUPLICATE_ALLOWLIST", ""))
	cfg.RedisAddr = getEnvString("REDIS_ADDR", "")
	cfg.UploadDir = getEnvString("UPLOAD_DIR", "uploads")
	cfg.UploadFileDir = getEnvString("UPLOAD_FILE_DIR", "uploadsfile")
	cfg.MaxFileBytes = getEnvInt64("MAX_FILE_BYTES", 10<<20)
	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.ServerPort)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	return cfg, nil
}

// DSN はPostgreSQL接続文字列を組み立てて返す。
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// MigrateURL はgolang-migrate用のPostgreSQL接続URLを返す。
// 認証情報に記号が含まれてもURLとして壊れないようエスケープして組み立てる。
func (c *Config) MigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// splitList はカンマ区切りの設定値を空白を除去しつつ分割する。
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
