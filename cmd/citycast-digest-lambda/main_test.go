package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/citycast-digest/internal/config"
)

func setDeliveryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("EMAIL_SENDER", "digest@example.com")
	t.Setenv("EMAIL_PASSWORD", "secret")
	t.Setenv("TO_SMS", "2025550123@tmomail.net")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("EVENTS_URL", "")
	t.Setenv("EVENTS_FILE", "")
	t.Setenv("SMS_CHUNK_SIZE", "")
}

func TestLoadConfig_DefaultsDataDirToTmp(t *testing.T) {
	setDeliveryEnv(t)
	t.Setenv("DATA_DIR", "")

	cfg, err := loadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lambdaDataDir, cfg.Storage.DataDir)
	assert.Equal(t, "smtp.example.com:587", cfg.SMTPAddr())
}

func TestLoadConfig_KeepsExplicitDataDir(t *testing.T) {
	setDeliveryEnv(t)
	t.Setenv("DATA_DIR", "/mnt/efs/citycast")

	cfg, err := loadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/mnt/efs/citycast", cfg.Storage.DataDir)
}

func TestLoadConfig_RequiresDeliverySettings(t *testing.T) {
	setDeliveryEnv(t)
	t.Setenv("TO_SMS", "")

	_, err := loadConfig(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
