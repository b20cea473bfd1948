package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/romanzzaa/liquidation-bot/internal/infrastructure/crypto"
	"github.com/shopspring/decimal"
)

// ExitPolicy - что делать процессу после исчерпания попыток переподключения
type ExitPolicy string

const (
	ExitPolicyExit ExitPolicy = "exit" // завершиться с кодом 1
	ExitPolicyIdle ExitPolicy = "idle" // ждать сигнала, затем код 0
)

// Config - глобальная конфигурация бота, читается один раз при старте
type Config struct {
	URL       string          `env:"URL,required,notEmpty"`
	Threshold decimal.Decimal `env:"THRESHOLD" envDefault:"50000"`
	DryRun    bool            `env:"DRY_RUN" envDefault:"false"`

	EncryptionKey string `env:"ENCRYPTION_KEY"`

	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Alert    AlertConfig
	Stream   StreamConfig `envPrefix:"STREAM_"`
	Notify   NotifyConfig `envPrefix:"NOTIFY_"`
	Log      LogConfig    `envPrefix:"LOG_"`
}

type TelegramConfig struct {
	BotToken    string `env:"BOT_TOKEN"`
	BotTokenEnc string `env:"BOT_TOKEN_ENC"`
	Channel     string `env:"CHANNEL"`
	APIEndpoint string `env:"API_ENDPOINT"`
}

type AlertConfig struct {
	ValueUnit     string `env:"VALUE_UNIT" envDefault:"thousands"`
	ValueDecimals int    `env:"VALUE_DECIMALS" envDefault:"1"`
}

type StreamConfig struct {
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY" envDefault:"5s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"0"` // 0 - бесконечно
	ExitPolicy     ExitPolicy    `env:"EXIT_POLICY" envDefault:"exit"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT" envDefault:"10m"`
	PingInterval   time.Duration `env:"PING_INTERVAL" envDefault:"1m"`
}

type NotifyConfig struct {
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RatePerMinute int           `env:"RATE_PER_MINUTE" envDefault:"0"` // >0 тормозит цикл приема на каждом алерте
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"json"`
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"7"`
}

// LoadConfig - .env (если есть) + переменные окружения, затем валидация
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	return Parse()
}

// loadDotEnv: отсутствующий файл - норма, битый - ошибка старта
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// Parse читает только окружение процесса
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Telegram.APIEndpoint == "" {
		cfg.Telegram.APIEndpoint = tgbotapi.APIEndpoint
	}

	if err := cfg.resolveToken(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, fmt.Errorf("URL must be a ws:// or wss:// endpoint, got %q", c.URL))
	}
	if c.Threshold.IsNegative() {
		errs = append(errs, errors.New("THRESHOLD must be >= 0"))
	}

	switch c.Alert.ValueUnit {
	case "raw", "thousands":
	default:
		errs = append(errs, fmt.Errorf("VALUE_UNIT must be raw or thousands, got %q", c.Alert.ValueUnit))
	}
	if c.Alert.ValueDecimals < 0 {
		errs = append(errs, errors.New("VALUE_DECIMALS must be >= 0"))
	}

	switch c.Stream.ExitPolicy {
	case ExitPolicyExit, ExitPolicyIdle:
	default:
		errs = append(errs, fmt.Errorf("STREAM_EXIT_POLICY must be exit or idle, got %q", c.Stream.ExitPolicy))
	}
	if c.Stream.MaxRetries < 0 {
		errs = append(errs, errors.New("STREAM_MAX_RETRIES must be >= 0"))
	}
	if c.Stream.ReconnectDelay < 0 {
		errs = append(errs, errors.New("STREAM_RECONNECT_DELAY must be >= 0"))
	}
	if c.Notify.RatePerMinute < 0 {
		errs = append(errs, errors.New("NOTIFY_RATE_PER_MINUTE must be >= 0"))
	}

	if !c.DryRun {
		if c.Telegram.BotToken == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN (or TELEGRAM_BOT_TOKEN_ENC) is required unless DRY_RUN"))
		}
		if strings.TrimSpace(c.Telegram.Channel) == "" {
			errs = append(errs, errors.New("TELEGRAM_CHANNEL is required unless DRY_RUN"))
		}
	}

	return errors.Join(errs...)
}

// resolveToken расшифровывает TELEGRAM_BOT_TOKEN_ENC, если открытый токен не задан
func (c *Config) resolveToken() error {
	if c.Telegram.BotToken != "" || c.Telegram.BotTokenEnc == "" {
		return nil
	}
	if c.EncryptionKey == "" {
		return errors.New("TELEGRAM_BOT_TOKEN_ENC requires ENCRYPTION_KEY")
	}

	enc, err := crypto.NewEncryptor(c.EncryptionKey)
	if err != nil {
		return fmt.Errorf("encryption key: %w", err)
	}
	token, err := enc.Decrypt(c.Telegram.BotTokenEnc)
	if err != nil {
		return fmt.Errorf("decrypt telegram token: %w", err)
	}
	c.Telegram.BotToken = token
	return nil
}
