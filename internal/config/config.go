package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 開発用のJWTシークレット（prodでは使わない）
const devJWTSecret = "dev_secret_change_me"

// API_RETRIESの上限
const MaxAPIRetries = 10

// Configはアプリ全体の設定
type Config struct {
	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	APIBaseURL    string        // リモートAPIのベースURL（/api/v1まで）
	APITimeout    time.Duration // 1回の試行のタイムアウト
	APIRetries    int           // 最大リトライ回数
	APIRetryDelay time.Duration // バックオフの基準
	APIRateLimit  float64       // 秒間リクエスト数（0で無制限）

	StorageDriver string // file/memory/postgres/redis
	StorageDir    string // fileのときの保存先
	RedisAddr     string // redisのときの接続先

	DraftEncryptionKey string        // 空なら暗号化しない
	DraftSaveDelay     time.Duration // ドラフト保存の遅延

	JWTSecret    string        // セッショントークンの署名
	SessionTTL   time.Duration // セッショントークンの有効期間
	SessionCache int           // メモリに置くセッション数

	CatalogRefresh string // カタログ再読込のcron式（空で無効）
}

const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// IsProdは本番か
func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// Loadは環境変数
func Load() (Config, error) {
	timeoutMS, err := atoiDefault("API_TIMEOUT_MS", 30000)
	if err != nil {
		return Config{}, err
	}
	retries, err := atoiDefault("API_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	retryDelayMS, err := atoiDefault("API_RETRY_DELAY_MS", 1000)
	if err != nil {
		return Config{}, err
	}
	rateLimit, err := floatDefault("API_RATE_LIMIT", 0)
	if err != nil {
		return Config{}, err
	}
	saveDelayMS, err := atoiDefault("DRAFT_SAVE_DELAY_MS", 500)
	if err != nil {
		return Config{}, err
	}
	ttlHours, err := atoiDefault("SESSION_TTL_HOURS", 720)
	if err != nil {
		return Config{}, err
	}
	sessionCache, err := atoiDefault("SESSION_CACHE_SIZE", 10000)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     getenv("PORT", "8080"),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		APIBaseURL:    strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8000/api/v1"), "/"),
		APITimeout:    time.Duration(timeoutMS) * time.Millisecond,
		APIRetries:    retries,
		APIRetryDelay: time.Duration(retryDelayMS) * time.Millisecond,
		APIRateLimit:  rateLimit,

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StorageFile)),
		StorageDir:    getenv("STORAGE_DIR", ".storefront"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),

		DraftEncryptionKey: os.Getenv("DRAFT_ENCRYPTION_KEY"),
		DraftSaveDelay:     time.Duration(saveDelayMS) * time.Millisecond,

		JWTSecret:    os.Getenv("JWT_SECRET"),
		SessionTTL:   time.Duration(ttlHours) * time.Hour,
		SessionCache: sessionCache,

		CatalogRefresh: getenvAllowEmpty("CATALOG_REFRESH", "@every 5m"),
	}

	//範囲チェック
	if cfg.APITimeout <= 0 {
		return Config{}, fmt.Errorf("API_TIMEOUT_MS must be positive")
	}
	if cfg.APIRetries < 0 {
		return Config{}, fmt.Errorf("API_RETRIES must not be negative")
	}
	if cfg.APIRetries > MaxAPIRetries {
		return Config{}, fmt.Errorf("API_RETRIES must be at most %d", MaxAPIRetries)
	}
	if cfg.APIRetryDelay < 0 {
		return Config{}, fmt.Errorf("API_RETRY_DELAY_MS must not be negative")
	}
	if cfg.APIRateLimit < 0 {
		return Config{}, fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	if cfg.DraftSaveDelay < 0 {
		return Config{}, fmt.Errorf("DRAFT_SAVE_DELAY_MS must not be negative")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if cfg.SessionCache <= 0 {
		return Config{}, fmt.Errorf("SESSION_CACHE_SIZE must be positive")
	}

	switch cfg.StorageDriver {
	case StorageFile:
		if cfg.StorageDir == "" {
			return Config{}, fmt.Errorf("STORAGE_DIR is required")
		}
	case StorageMemory, StoragePostgres:
	case StorageRedis:
		if cfg.RedisAddr == "" {
			return Config{}, fmt.Errorf("REDIS_ADDR is required")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be one of file, memory, postgres, redis")
	}

	//本番は必須
	if cfg.IsProd() {
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET is required")
		}
		if cfg.DraftEncryptionKey == "" {
			return Config{}, fmt.Errorf("DRAFT_ENCRYPTION_KEY is required")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// 明示的に空（"off"）で無効化できる
func getenvAllowEmpty(key string, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	if strings.EqualFold(strings.TrimSpace(v), "off") {
		return ""
	}
	return strings.TrimSpace(v)
}

func atoiDefault(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func floatDefault(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return f, nil
}
