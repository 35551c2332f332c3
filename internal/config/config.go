// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/marketplace/pkg/config"
)

const (
	MailLog     = "log"
	MailSMTP    = "smtp"
	MailMailgun = "mailgun"

	StorageDisk = "disk"
	StorageS3   = "s3"
)

type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string

	AccessSecret  []byte
	RefreshSecret []byte
	EmailSecret   []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	EmailMaxAge   time.Duration
	SingleSession bool

	CookieSecure  bool
	CSRFEnabled   bool
	PublicBaseURL string
	BodyLimit     string
	PhoneRegion   string

	Mail MailConfig

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ESURLs         []string
	ESUsername     string
	ESPassword     string
	ESProductIndex string

	Storage StorageConfig
}

type MailConfig struct {
	Provider       string
	From           string
	Timeout        time.Duration
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailgunDomain  string
	MailgunAPIKey  string
	BreakerOpenFor time.Duration
}

type StorageConfig struct {
	Driver      string
	Dir         string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadDotenv reads path into the environment when it exists.
// Variables already set win over the file.
func LoadDotenv(path string) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("dotenv_not_found", "path", path)
			return
		}
		slog.Warn("dotenv_load_failed", "path", path, "error", err)
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:     pkgconfig.EnvDefault("SERVER_PORT", "8080"),
		LogLevel: pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		EmailSecret:   []byte(os.Getenv("EMAIL_TOKEN_SECRET")),
		AccessTTL:     pkgconfig.EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:    pkgconfig.EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailMaxAge:   pkgconfig.EnvDurationDefault("EMAIL_TOKEN_MAX_AGE", time.Hour),
		SingleSession: pkgconfig.EnvBoolDefault("SINGLE_SESSION", true),

		CookieSecure:  pkgconfig.EnvBoolDefault("COOKIE_SECURE", true),
		CSRFEnabled:   pkgconfig.EnvBoolDefault("CSRF_ENABLED", false),
		PublicBaseURL: strings.TrimRight(pkgconfig.EnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		BodyLimit:     pkgconfig.EnvDefault("BODY_LIMIT", "10M"),
		PhoneRegion:   pkgconfig.EnvDefault("PHONE_DEFAULT_REGION", "US"),

		Mail: MailConfig{
			Provider:       strings.ToLower(pkgconfig.EnvDefault("MAIL_PROVIDER", MailLog)),
			From:           os.Getenv("MAIL_FROM"),
			Timeout:        pkgconfig.EnvDurationDefault("MAIL_TIMEOUT", 10*time.Second),
			SMTPHost:       os.Getenv("SMTP_HOST"),
			SMTPPort:       pkgconfig.EnvIntDefault("SMTP_PORT", 587),
			SMTPUsername:   os.Getenv("SMTP_USERNAME"),
			SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
			MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
			MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
			BreakerOpenFor: pkgconfig.EnvDurationDefault("MAIL_BREAKER_OPEN_FOR", 30*time.Second),
		},

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       pkgconfig.EnvIntDefault("REDIS_DB", 0),

		ESURLs:         pkgconfig.CSV(os.Getenv("ES_URL")),
		ESUsername:     os.Getenv("ES_USERNAME"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		ESProductIndex: pkgconfig.EnvDefault("ES_PRODUCT_INDEX", "products"),

		Storage: StorageConfig{
			Driver:      strings.ToLower(pkgconfig.EnvDefault("STORAGE_DRIVER", StorageDisk)),
			Dir:         pkgconfig.EnvDefault("STORAGE_DIR", "./uploads"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Region:    os.Getenv("S3_REGION"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}

	var req pkgconfig.Required
	req.String(cfg.DatabaseURL, "DATABASE_URL")
	req.Bytes(cfg.AccessSecret, "JWT_SECRET")
	req.Bytes(cfg.RefreshSecret, "JWT_REFRESH_SECRET")
	req.Bytes(cfg.EmailSecret, "EMAIL_TOKEN_SECRET")

	switch cfg.Mail.Provider {
	case MailLog:
	case MailSMTP:
		req.String(cfg.Mail.SMTPHost, "SMTP_HOST")
		req.String(cfg.Mail.From, "MAIL_FROM")
	case MailMailgun:
		req.String(cfg.Mail.MailgunDomain, "MAILGUN_DOMAIN")
		req.String(cfg.Mail.MailgunAPIKey, "MAILGUN_API_KEY")
		req.String(cfg.Mail.From, "MAIL_FROM")
	default:
		return nil, fmt.Errorf("config: unknown MAIL_PROVIDER %q", cfg.Mail.Provider)
	}

	switch cfg.Storage.Driver {
	case StorageDisk:
	case StorageS3:
		req.String(cfg.Storage.S3Bucket, "S3_BUCKET")
		req.String(cfg.Storage.S3Region, "S3_REGION")
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if err := req.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("config: JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return cfg, nil
}

func (c *Config) Addr() string { return ":" + c.Port }
