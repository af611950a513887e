package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppURL                 string
	PublicURL              string
	DatabaseDriver         string
	DatabaseDSN            string
	StorageDir             string
	MaxUploadKB            int64
	RateLimit              int
	RateLimitBackend       string
	RedisAddr              string
	RedisRateLimitPrefix   string
	CORSAllowOrigins       []string
	ShutdownTimeoutSeconds int
	WebURL                 string
	APIURL                 string
	ClientTimeoutSeconds   int
}

var defaults = map[string]any{
	"APP_HOST":                 "127.0.0.1",
	"APP_PORT":                 "8000",
	"PUBLIC_URL":               "",
	"DB_DRIVER":                "sqlite",
	"DATABASE_DSN":             "tasks.db",
	"STORAGE_DIR":              "storage/app/public",
	"MAX_UPLOAD_KB":            2048,
	"RATE_LIMIT_PER_MINUTE":    60,
	"RATE_LIMIT_BACKEND":       "memory",
	"REDIS_HOST":               "127.0.0.1",
	"REDIS_PORT":               "6379",
	"REDIS_RATE_LIMIT_PREFIX":  "task_manager:rate_limit:",
	"CORS_ALLOW_ORIGINS":       "*",
	"SHUTDOWN_TIMEOUT_SECONDS": 20,
	"WEB_HOST":                 "127.0.0.1",
	"WEB_PORT":                 "3000",
	"API_URL":                  "",
	"CLIENT_TIMEOUT_SECONDS":   10,
}

// Load resolves the configuration from the environment, the optional YAML
// file at path, and the defaults, in that order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	appURL := fmt.Sprintf("%s:%s", v.GetString("APP_HOST"), v.GetString("APP_PORT"))

	cfg := Config{
		AppURL:                 appURL,
		PublicURL:              strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		DatabaseDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:            v.GetString("DATABASE_DSN"),
		StorageDir:             v.GetString("STORAGE_DIR"),
		MaxUploadKB:            v.GetInt64("MAX_UPLOAD_KB"),
		RateLimit:              v.GetInt("RATE_LIMIT_PER_MINUTE"),
		RateLimitBackend:       strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		RedisAddr:              fmt.Sprintf("%s:%s", v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT")),
		RedisRateLimitPrefix:   v.GetString("REDIS_RATE_LIMIT_PREFIX"),
		CORSAllowOrigins:       splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		ShutdownTimeoutSeconds: v.GetInt("SHUTDOWN_TIMEOUT_SECONDS"),
		WebURL:                 fmt.Sprintf("%s:%s", v.GetString("WEB_HOST"), v.GetString("WEB_PORT")),
		APIURL:                 strings.TrimRight(v.GetString("API_URL"), "/"),
		ClientTimeoutSeconds:   v.GetInt("CLIENT_TIMEOUT_SECONDS"),
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + appURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "http://" + appURL
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("DB_DRIVER must be one of sqlite, mysql, postgres (got %q)", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.StorageDir == "" {
		return errors.New("STORAGE_DIR must not be empty")
	}
	if cfg.MaxUploadKB <= 0 {
		return errors.New("MAX_UPLOAD_KB must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.RateLimitBackend != "memory" && cfg.RateLimitBackend != "redis" {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis (got %q)", cfg.RateLimitBackend)
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	if cfg.ClientTimeoutSeconds <= 0 {
		return errors.New("CLIENT_TIMEOUT_SECONDS must be greater than 0")
	}
	return nil
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
