package domain

import (
	"context"
)

// EventHandler - получатель декодированных событий (Gate)
type EventHandler interface {
	HandleEvent(ctx context.Context, event LiquidationEvent) error
}

// Notifier - доставка сообщений во внешний канал (Telegram)
type Notifier interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// LiquidationStream - источник событий. Каждый Connect открывает новую сессию с нуля.
type LiquidationStream interface {
	Connect(ctx context.Context) (StreamSession, error)
}

// StreamSession - одно живое соединение.
// Consume блокируется до разрыва соединения или отмены ctx.
type StreamSession interface {
	ID() string
	Consume(ctx context.Context, handler EventHandler) error
	Close() error
}
