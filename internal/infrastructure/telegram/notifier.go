package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"golang.org/x/time/rate"
)

const defaultHTTPTimeout = 30 * time.Second

type Config struct {
	Token         string
	APIEndpoint   string        // шаблон вида https://api.telegram.org/bot%s/%s
	HTTPTimeout   time.Duration // верхняя граница для зависшего запроса
	RatePerMinute int           // 0 - без лимита
}

// Notifier отправляет сообщения в канал через Bot API.
// Создается один раз при старте и передается в сервис.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewNotifier(cfg Config, logger *slog.Logger) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	bot.Debug = false

	n := &Notifier{
		bot:    bot,
		logger: logger.With("component", "telegram"),
	}
	if cfg.RatePerMinute > 0 {
		// Telegram режет ~20 сообщений в минуту на канал
		n.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	n.logger.Info("Telegram bot authorized", slog.String("username", n.bot.Self.UserName))
	return n, nil
}

// Send - одна попытка доставки, без ретраев. Уважает дедлайн ctx.
func (n *Notifier) Send(ctx context.Context, msg domain.OutboundMessage) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	cfg, err := messageConfig(msg)
	if err != nil {
		return err
	}

	// tgbotapi не принимает context, поэтому ждем результат в select.
	// Висящий запрос ограничен таймаутом http.Client.
	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(cfg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// messageConfig: числовой id чата или @username канала
func messageConfig(msg domain.OutboundMessage) (tgbotapi.MessageConfig, error) {
	channel := strings.TrimSpace(msg.Channel)
	if channel == "" {
		return tgbotapi.MessageConfig{}, errors.New("telegram channel is empty")
	}

	if chatID, err := strconv.ParseInt(channel, 10, 64); err == nil {
		return tgbotapi.NewMessage(chatID, msg.Text), nil
	}

	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return tgbotapi.NewMessageToChannel(channel, msg.Text), nil
}
