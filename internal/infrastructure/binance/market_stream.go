package binance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/romanzzaa/liquidation-bot/internal/domain"
)

const (
	// Все ликвидации USDⓈ-M фьючерсов одним потоком
	MainnetForceOrderURL = "wss://fstream.binance.com/ws/!forceOrder@arr"

	defaultReadTimeout  = 10 * time.Minute
	defaultPingInterval = time.Minute
	writeWait           = 10 * time.Second
	handshakeTimeout    = 15 * time.Second
)

type StreamOptions struct {
	ReadTimeout  time.Duration // простой без кадров/пингов = разрыв
	PingInterval time.Duration
}

// MarketStream открывает websocket-сессии к потоку forceOrder.
type MarketStream struct {
	url    string
	opts   StreamOptions
	dialer *websocket.Dialer
	logger *slog.Logger
}

func NewMarketStream(url string, opts StreamOptions, logger *slog.Logger) *MarketStream {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	return &MarketStream{
		url:  url,
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger.With("component", "market_stream"),
	}
}

// Connect - одна попытка подключения. Ошибка всегда *domain.TransportFault.
func (s *MarketStream) Connect(ctx context.Context) (domain.StreamSession, error) {
	id := uuid.NewString()
	log := s.logger.With("session_id", id)

	log.Info("Connecting to Binance liquidation stream...", "url", s.url)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (http status %d)", err, resp.StatusCode)
		}
		return nil, &domain.TransportFault{Op: "dial", Err: err}
	}

	log.Info("✅ WebSocket Connected.")

	return &session{
		id:     id,
		conn:   conn,
		opts:   s.opts,
		logger: log,
		done:   make(chan struct{}),
	}, nil
}

type session struct {
	id     string
	conn   *websocket.Conn
	opts   StreamOptions
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (ss *session) ID() string { return ss.id }

// Consume читает кадры по одному и синхронно отдает их в handler, порядок сохраняется.
// Битые кадры и ошибки обработчика логируются и не прерывают цикл.
// Возвращает ctx.Err() при отмене, иначе *domain.TransportFault.
func (ss *session) Consume(ctx context.Context, handler domain.EventHandler) error {
	// Отмена ctx прерывает блокирующий ReadMessage закрытием соединения
	stop := context.AfterFunc(ctx, func() { ss.Close() })
	defer stop()

	ss.conn.SetPingHandler(func(appData string) error {
		ss.extendDeadline()
		err := ss.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})
	ss.conn.SetPongHandler(func(string) error {
		ss.extendDeadline()
		return nil
	})

	go ss.heartbeat()

	for {
		ss.extendDeadline()

		_, frame, err := ss.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &domain.TransportFault{Op: "read", Err: err}
		}

		ss.dispatch(ctx, frame, handler)
	}
}

func (ss *session) dispatch(ctx context.Context, frame []byte, handler domain.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			ss.logger.Error("🔥 panic while handling frame", "panic", fmt.Sprint(r))
		}
	}()

	event, err := decodeFrame(frame)
	if err != nil {
		ss.logger.Error("⚠️ Skipping malformed frame", "err", err)
		return
	}

	if err := handler.HandleEvent(ctx, event); err != nil {
		ss.logHandlerError(event, err)
	}
}

func (ss *session) logHandlerError(event domain.LiquidationEvent, err error) {
	var delivery *domain.DeliveryFault
	switch {
	case errors.Is(err, domain.ErrUnexpectedEvent):
		ss.logger.Error("gate_data Error!: raw_data is Not 'forceOrder'", "event_type", event.Type)
	case errors.As(err, &delivery):
		ss.logger.Error("send_message Error!", "symbol", event.Symbol, "channel", delivery.Channel, "err", delivery.Err)
	default:
		ss.logger.Error("Event handling failed", "symbol", event.Symbol, "err", err)
	}
}

func (ss *session) heartbeat() {
	ticker := time.NewTicker(ss.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ss.done:
			return
		case <-ticker.C:
			if err := ss.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				// Полуоткрытое соединение: закрываем, чтобы ReadMessage сразу вернул ошибку
				ss.logger.Warn("Ping failed, closing session", "err", err)
				ss.Close()
				return
			}
		}
	}
}

func (ss *session) extendDeadline() {
	_ = ss.conn.SetReadDeadline(time.Now().Add(ss.opts.ReadTimeout))
}

// Close идемпотентен и безопасен из любой горутины
func (ss *session) Close() error {
	ss.closeOnce.Do(func() {
		close(ss.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ss.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		ss.closeErr = ss.conn.Close()
		ss.logger.Info("WebSocket session closed")
	})
	return ss.closeErr
}
