// Package config centralizes how the relay reads environment variables and
// exposes them as strongly typed Go values. The Config is built once at
// process start and handed to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Dispatch modes select how transcode jobs leave the webhook request.
const (
	DispatchInline = "inline"
	DispatchPool   = "pool"
	DispatchRedis  = "redis"
)

// Config represents runtime configuration for the relay.
type Config struct {
	Address    string
	Telegram   TelegramConfig
	Cloudinary CloudinaryConfig
	Dispatch   DispatchConfig
	Redis      RedisConfig
	Log        LogConfig
}

// TelegramConfig holds the Bot API credentials and endpoints.
type TelegramConfig struct {
	BotToken string
	// APIEndpoint and FileEndpoint are fmt patterns taking the token and the
	// method (or file path), the same shape tgbotapi uses.
	APIEndpoint    string
	FileEndpoint   string
	RequestTimeout time.Duration
	// WebhookSecret enables the X-Telegram-Bot-Api-Secret-Token check when set.
	WebhookSecret string
	// PublicHost is used for the callback URL when a request carries no Host.
	PublicHost string
}

// CloudinaryConfig holds the media service account and upload settings.
type CloudinaryConfig struct {
	CloudName     string
	APIKey        string
	APISecret     string
	Folder        string
	UploadTimeout time.Duration
}

// DispatchConfig sizes the in-process worker pool and picks the dispatcher.
type DispatchConfig struct {
	Mode      string
	Workers   int
	QueueSize int
}

// RedisConfig points the asynq client and worker at redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LogConfig mirrors the knobs of logging.Setup.
type LogConfig struct {
	Level          string
	Format         string
	FilePath       string
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
}

const (
	defaultAddress         = ":8080"
	defaultAPIEndpoint     = "https://api.telegram.org/bot%s/%s"
	defaultFileEndpoint    = "https://api.telegram.org/file/bot%s/%s"
	defaultRequestTimeout  = 30 * time.Second
	defaultFolder          = "telegram_videos"
	defaultUploadTimeout   = 5 * time.Minute
	defaultWorkerCount     = 4
	defaultRedisAddr       = "localhost:6379"
	defaultLogLevel        = "info"
	defaultLogFormat       = "json"
	defaultLogFileMaxSize  = 50
	defaultLogFileBackups  = 3
	defaultLogFileMaxAgeDs = 7
)

// Load reads configuration from environment variables (and a .env file when
// present) falling back to defaults. Credentials are not checked here; call
// Validate or ValidateTelegram depending on what the binary needs.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Address: readEnv("RELAY_ADDRESS", defaultAddress),
		Telegram: TelegramConfig{
			BotToken:       readEnv("TELEGRAM_BOT_TOKEN", ""),
			APIEndpoint:    readEnv("TELEGRAM_API_ENDPOINT", defaultAPIEndpoint),
			FileEndpoint:   readEnv("TELEGRAM_FILE_ENDPOINT", defaultFileEndpoint),
			RequestTimeout: parseDuration("TELEGRAM_REQUEST_TIMEOUT", defaultRequestTimeout),
			WebhookSecret:  readEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			PublicHost:     readEnv("PUBLIC_HOST", readEnv("VERCEL_URL", "")),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:     readEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:        readEnv("CLOUDINARY_API_KEY", ""),
			APISecret:     readEnv("CLOUDINARY_API_SECRET", ""),
			Folder:        readEnv("CLOUDINARY_FOLDER", defaultFolder),
			UploadTimeout: parseDuration("CLOUDINARY_UPLOAD_TIMEOUT", defaultUploadTimeout),
		},
		Dispatch: DispatchConfig{
			Mode:      strings.ToLower(readEnv("RELAY_DISPATCH", DispatchPool)),
			Workers:   parseInt("RELAY_WORKERS", defaultWorkerCount),
			QueueSize: parseInt("RELAY_QUEUE_SIZE", 0),
		},
		Redis: RedisConfig{
			Addr:     readEnv("REDIS_ADDR", defaultRedisAddr),
			Password: readEnv("REDIS_PASSWORD", ""),
			DB:       parseInt("REDIS_DB", 0),
		},
		Log: LogConfig{
			Level:          strings.ToLower(readEnv("LOG_LEVEL", defaultLogLevel)),
			Format:         strings.ToLower(readEnv("LOG_FORMAT", defaultLogFormat)),
			FilePath:       readEnv("LOG_FILE", ""),
			FileMaxSizeMB:  parseInt("LOG_FILE_MAX_SIZE", defaultLogFileMaxSize),
			FileMaxBackups: parseInt("LOG_FILE_MAX_BACKUPS", defaultLogFileBackups),
			FileMaxAgeDays: parseInt("LOG_FILE_MAX_AGE", defaultLogFileMaxAgeDs),
		},
	}
	if cfg.Telegram.RequestTimeout <= 0 {
		cfg.Telegram.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Cloudinary.UploadTimeout <= 0 {
		cfg.Cloudinary.UploadTimeout = defaultUploadTimeout
	}
	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = defaultWorkerCount
	}
	if cfg.Dispatch.QueueSize <= 0 {
		cfg.Dispatch.QueueSize = cfg.Dispatch.Workers * 4
	}
	switch cfg.Dispatch.Mode {
	case DispatchInline, DispatchPool, DispatchRedis:
	default:
		return nil, fmt.Errorf("unknown RELAY_DISPATCH %q", cfg.Dispatch.Mode)
	}
	return cfg, nil
}

// ValidateTelegram reports whether the Bot API credentials are present. The
// webhook administration commands only need these.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// Validate checks everything the serving binaries need.
func (c *Config) Validate() error {
	if err := c.ValidateTelegram(); err != nil {
		return err
	}
	var missing []string
	if c.Cloudinary.CloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if c.Cloudinary.APIKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if c.Cloudinary.APISecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	// time.ParseDuration understands inputs like "90s" or "5m".
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
