package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/romanzzaa/liquidation-bot/internal/infrastructure/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("URL", "wss://fstream.binance.com/ws/!forceOrder@arr")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHANNEL", "@liquidations")
}

func TestParse_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.Threshold.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "thousands", cfg.Alert.ValueUnit)
	assert.Equal(t, 1, cfg.Alert.ValueDecimals)
	assert.Equal(t, 5*time.Second, cfg.Stream.ReconnectDelay)
	assert.Equal(t, 0, cfg.Stream.MaxRetries)
	assert.Equal(t, ExitPolicyExit, cfg.Stream.ExitPolicy)
	assert.Equal(t, 10*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, 0, cfg.Notify.RatePerMinute)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Telegram.APIEndpoint)
}

func TestParse_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("THRESHOLD", "100000.5")
	t.Setenv("VALUE_UNIT", "raw")
	t.Setenv("VALUE_DECIMALS", "0")
	t.Setenv("STREAM_MAX_RETRIES", "3")
	t.Setenv("STREAM_EXIT_POLICY", "idle")
	t.Setenv("STREAM_RECONNECT_DELAY", "250ms")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.Threshold.Equal(decimal.RequireFromString("100000.5")))
	assert.Equal(t, "raw", cfg.Alert.ValueUnit)
	assert.Equal(t, 0, cfg.Alert.ValueDecimals)
	assert.Equal(t, 3, cfg.Stream.MaxRetries)
	assert.Equal(t, ExitPolicyIdle, cfg.Stream.ExitPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.Stream.ReconnectDelay)
}

func TestParse_Invalid(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		t.Setenv("URL", "")
		t.Setenv("DRY_RUN", "true")
		_, err := Parse()
		assert.Error(t, err)
	})

	t.Run("http url", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("URL", "https://example.com")
		_, err := Parse()
		assert.ErrorContains(t, err, "ws://")
	})

	t.Run("bad unit and policy", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("VALUE_UNIT", "millions")
		t.Setenv("STREAM_EXIT_POLICY", "panic")
		_, err := Parse()
		assert.ErrorContains(t, err, "VALUE_UNIT")
		assert.ErrorContains(t, err, "STREAM_EXIT_POLICY")
	})

	t.Run("missing telegram outside dry run", func(t *testing.T) {
		t.Setenv("URL", "wss://example.com/ws")
		t.Setenv("TELEGRAM_BOT_TOKEN", "")
		t.Setenv("TELEGRAM_CHANNEL", "")
		_, err := Parse()
		assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
		assert.ErrorContains(t, err, "TELEGRAM_CHANNEL")
	})
}

func TestParse_DryRunWithoutTelegram(t *testing.T) {
	t.Setenv("URL", "ws://localhost:9000/ws")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHANNEL", "")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func TestParse_EncryptedToken(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)
	ct, err := enc.Encrypt("999:secret")
	require.NoError(t, err)

	setBaseEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN_ENC", ct)
	t.Setenv("ENCRYPTION_KEY", key)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "999:secret", cfg.Telegram.BotToken)

	t.Setenv("ENCRYPTION_KEY", "")
	_, err = Parse()
	assert.ErrorContains(t, err, "ENCRYPTION_KEY")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadDotEnv(filepath.Join(dir, "absent.env")))
	})

	t.Run("valid file is applied", func(t *testing.T) {
		path := filepath.Join(dir, "ok.env")
		require.NoError(t, os.WriteFile(path, []byte("LIQ_DOTENV_VALUE=loaded\n"), 0o600))
		t.Cleanup(func() { os.Unsetenv("LIQ_DOTENV_VALUE") })

		require.NoError(t, loadDotEnv(path))
		assert.Equal(t, "loaded", os.Getenv("LIQ_DOTENV_VALUE"))
	})

	t.Run("unparsable file is an error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.env")
		require.NoError(t, os.WriteFile(path, []byte("TOKEN=\"unterminated\n"), 0o600))

		err := loadDotEnv(path)
		assert.ErrorContains(t, err, "bad.env")
	})

	t.Run("directory is an error", func(t *testing.T) {
		assert.Error(t, loadDotEnv(dir))
	})
}
