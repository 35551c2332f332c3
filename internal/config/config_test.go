package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/Skotchmaster/marketplace/pkg/config"
)

func setBase(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/shop")
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("EMAIL_TOKEN_SECRET", "email")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, time.Hour, cfg.EmailMaxAge)
	assert.True(t, cfg.SingleSession)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.CSRFEnabled)
	assert.Equal(t, MailLog, cfg.Mail.Provider)
	assert.Equal(t, StorageDisk, cfg.Storage.Driver)
	assert.Equal(t, "products", cfg.ESProductIndex)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadOverrides(t *testing.T) {
	setBase(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("SINGLE_SESSION", "false")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.False(t, cfg.SingleSession)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "https://shop.example", cfg.PublicBaseURL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "secrets missing",
			env:     map[string]string{"JWT_SECRET": "", "EMAIL_TOKEN_SECRET": ""},
			missing: []string{"JWT_SECRET", "EMAIL_TOKEN_SECRET"},
		},
		{
			name:    "smtp without host",
			env:     map[string]string{"MAIL_PROVIDER": "smtp"},
			missing: []string{"SMTP_HOST", "MAIL_FROM"},
		},
		{
			name:    "mailgun without key",
			env:     map[string]string{"MAIL_PROVIDER": "mailgun", "MAILGUN_DOMAIN": "mg.example", "MAIL_FROM": "shop@example.com"},
			missing: []string{"MAILGUN_API_KEY"},
		},
		{
			name:    "s3 without bucket",
			env:     map[string]string{"STORAGE_DRIVER": "s3"},
			missing: []string{"S3_BUCKET", "S3_REGION"},
		},
		{name: "unknown mail provider", env: map[string]string{"MAIL_PROVIDER": "pigeon"}},
		{name: "same secrets", env: map[string]string{"JWT_REFRESH_SECRET": "access"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			setBase(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)

			var missing *pkgconfig.MissingError
			if tt.missing == nil {
				assert.False(t, errors.As(err, &missing))
				return
			}
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.missing, missing.Names)
		})
	}
}

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MARKETPLACE_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("MARKETPLACE_DOTENV_PROBE", "")
	os.Unsetenv("MARKETPLACE_DOTENV_PROBE")

	LoadDotenv(path)
	assert.Equal(t, "from-file", os.Getenv("MARKETPLACE_DOTENV_PROBE"))

	LoadDotenv(filepath.Join(t.TempDir(), "missing.env"))
}
