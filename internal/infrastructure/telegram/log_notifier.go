package telegram

import (
	"context"
	"log/slog"

	"github.com/romanzzaa/liquidation-bot/internal/domain"
)

// LogNotifier - режим DRY_RUN: пишет сообщение в лог вместо Telegram
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "dry_run_notifier")}
}

func (n *LogNotifier) Send(_ context.Context, msg domain.OutboundMessage) error {
	n.logger.Info("[dry-run] message", "channel", msg.Channel, "text", msg.Text)
	return nil
}
