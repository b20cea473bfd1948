package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// LiquidationService - гейт: фильтрует события по типу и порогу,
// форматирует алерт и отдает его в Notifier.
type LiquidationService struct {
	threshold     decimal.Decimal
	channel       string
	notifyTimeout time.Duration
	formatter     *Formatter
	notifier      domain.Notifier
	logger        *slog.Logger
}

type LiquidationConfig struct {
	Threshold     decimal.Decimal
	Channel       string
	NotifyTimeout time.Duration // 0 - без таймаута
}

func NewLiquidationService(cfg LiquidationConfig, formatter *Formatter, notifier domain.Notifier, logger *slog.Logger) *LiquidationService {
	return &LiquidationService{
		threshold:     cfg.Threshold,
		channel:       cfg.Channel,
		notifyTimeout: cfg.NotifyTimeout,
		formatter:     formatter,
		notifier:      notifier,
		logger:        logger.With("component", "gate"),
	}
}

// HandleEvent пропускает только forceOrder со стоимостью >= порога.
// Ошибка возвращается для чужих событий (ErrUnexpectedEvent) и проваленной доставки (*DeliveryFault);
// логирует ее вызывающий.
func (s *LiquidationService) HandleEvent(ctx context.Context, event domain.LiquidationEvent) error {
	if event.Type != domain.EventTypeForceOrder {
		return fmt.Errorf("%w: got %q", domain.ErrUnexpectedEvent, event.Type)
	}

	value := event.Value()
	if value.LessThan(s.threshold) {
		return nil
	}

	text := s.formatter.Format(event, value, event.AvgPrice)
	if err := s.deliver(ctx, text); err != nil {
		return err
	}

	s.logger.Info("📨 send_message",
		slog.String("symbol", event.Symbol),
		slog.String("value", value.StringFixed(2)),
		slog.String("text", text))
	return nil
}

// NotifyStopped - финальное уведомление об остановке стрима. Best-effort:
// ошибка только логируется.
func (s *LiquidationService) NotifyStopped(ctx context.Context, attempts int, cause error) {
	text := fmt.Sprintf("⛔ Liquidation stream stopped after %d reconnect attempts", attempts)
	if cause != nil {
		text += fmt.Sprintf("\nlast error: %v", cause)
	}

	if err := s.deliver(ctx, text); err != nil {
		s.logger.Error("❌ stop notification failed", "err", err)
		return
	}
	s.logger.Info("📨 stop notification sent", slog.Int("attempts", attempts))
}

func (s *LiquidationService) deliver(ctx context.Context, text string) error {
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
	}

	msg := domain.OutboundMessage{Channel: s.channel, Text: text}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return &domain.DeliveryFault{Channel: s.channel, Err: err}
	}
	return nil
}
