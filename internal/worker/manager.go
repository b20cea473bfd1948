package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/romanzzaa/liquidation-bot/internal/domain"
)

// State - состояние жизненного цикла подписки
type State int32

const (
	StateDisconnected State = iota
	StateConnected
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const defaultStopNotifyTimeout = 10 * time.Second

// StopNotifier - финальное уведомление при исчерпании попыток
type StopNotifier interface {
	NotifyStopped(ctx context.Context, attempts int, cause error)
}

type Config struct {
	ReconnectDelay    time.Duration
	MaxRetries        int           // 0 - бесконечно
	StopNotifyTimeout time.Duration // граница для финального уведомления
}

// Manager держит одну подписку живой до отмены ctx или исчерпания попыток.
// Disconnected -> Connected(retry=0) -> Disconnected(retry+1) -> ... -> Stopped.
type Manager struct {
	stream  domain.LiquidationStream
	handler domain.EventHandler
	stopper StopNotifier
	cfg     Config
	logger  *slog.Logger

	state atomic.Int32
}

func NewManager(
	stream domain.LiquidationStream,
	handler domain.EventHandler,
	stopper StopNotifier,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	if cfg.StopNotifyTimeout <= 0 {
		cfg.StopNotifyTimeout = defaultStopNotifyTimeout
	}
	return &Manager{
		stream:  stream,
		handler: handler,
		stopper: stopper,
		cfg:     cfg,
		logger:  logger.With("component", "manager"),
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	if old := State(m.state.Swap(int32(s))); old != s {
		m.logger.Debug("state transition", "from", old.String(), "to", s.String())
	}
}

// Run блокируется до отмены ctx (возвращает nil) или до исчерпания
// попыток (возвращает ошибку с domain.ErrRetriesExhausted).
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("Starting Manager",
		slog.Duration("reconnect_delay", m.cfg.ReconnectDelay),
		slog.Int("max_retries", m.cfg.MaxRetries))

	retry := 0
	for {
		m.setState(StateDisconnected)

		err := m.runSession(ctx, func() { retry = 0 })
		if ctx.Err() != nil {
			return m.shutdown()
		}

		retry++
		m.logFault(err, retry)

		if m.cfg.MaxRetries > 0 && retry > m.cfg.MaxRetries {
			return m.exhausted(retry-1, err)
		}

		m.logger.Info("Reconnecting...", slog.Duration("delay", m.cfg.ReconnectDelay), slog.Int("retry", retry))
		if !m.sleep(ctx, m.cfg.ReconnectDelay) {
			return m.shutdown()
		}
	}
}

// runSession: connect + consume; соединение закрывается при любом выходе
func (m *Manager) runSession(ctx context.Context, onConnected func()) error {
	sess, err := m.stream.Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	onConnected()
	m.setState(StateConnected)
	m.logger.Info("Stream session established", "session_id", sess.ID())

	return sess.Consume(ctx, m.handler)
}

func (m *Manager) logFault(err error, retry int) {
	var transport *domain.TransportFault
	switch {
	case errors.As(err, &transport):
		m.logger.Error("❌ WebSocket Connection Error", "op", transport.Op, "err", transport.Err, "retry", retry)
	case err == nil:
		m.logger.Warn("Stream session ended without error", "retry", retry)
	default:
		m.logger.Error("❌ Stream session failed", "err", err, "retry", retry)
	}
}

func (m *Manager) exhausted(attempts int, cause error) error {
	m.setState(StateStopped)
	m.logger.Error("⛔ Reconnect attempts exhausted, stopping stream", slog.Int("attempts", attempts))

	if m.stopper != nil {
		// Родительский ctx жив, но даем уведомлению отдельный бюджет времени
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.StopNotifyTimeout)
		defer cancel()
		m.stopper.NotifyStopped(ctx, attempts, cause)
	}

	if cause == nil {
		return fmt.Errorf("%w after %d attempts", domain.ErrRetriesExhausted, attempts)
	}
	return fmt.Errorf("%w after %d attempts: %w", domain.ErrRetriesExhausted, attempts, cause)
}

func (m *Manager) shutdown() error {
	m.setState(StateShuttingDown)
	m.logger.Info("✅ WebSocket Connection Closed.")
	m.setState(StateStopped)
	return nil
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
