package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/romanzzaa/liquidation-bot/internal/config"
	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"github.com/romanzzaa/liquidation-bot/internal/infrastructure/binance"
	"github.com/romanzzaa/liquidation-bot/internal/infrastructure/telegram"
	"github.com/romanzzaa/liquidation-bot/internal/logger"
	"github.com/romanzzaa/liquidation-bot/internal/usecase"
	"github.com/romanzzaa/liquidation-bot/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	bootLog := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog.Error("failed to load config", slog.String("error", err.Error()))
		return 1
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		bootLog.Error("failed to init logger", slog.String("error", err.Error()))
		return 1
	}
	defer closer.Close()
	slog.SetDefault(log)

	var notifier domain.Notifier
	if cfg.DryRun {
		notifier = telegram.NewLogNotifier(log)
	} else {
		tg, err := telegram.NewNotifier(telegram.Config{
			Token:         cfg.Telegram.BotToken,
			APIEndpoint:   cfg.Telegram.APIEndpoint,
			HTTPTimeout:   cfg.Notify.Timeout,
			RatePerMinute: cfg.Notify.RatePerMinute,
		}, log)
		if err != nil {
			log.Error("failed to init telegram bot", slog.String("error", err.Error()))
			return 1
		}
		notifier = tg
	}

	formatter, err := usecase.NewFormatter(usecase.ValueUnit(cfg.Alert.ValueUnit), cfg.Alert.ValueDecimals)
	if err != nil {
		log.Error("invalid alert format", slog.String("error", err.Error()))
		return 1
	}

	liquidations := usecase.NewLiquidationService(usecase.LiquidationConfig{
		Threshold:     cfg.Threshold,
		Channel:       cfg.Telegram.Channel,
		NotifyTimeout: cfg.Notify.Timeout,
	}, formatter, notifier, log)

	stream := binance.NewMarketStream(cfg.URL, binance.StreamOptions{
		ReadTimeout:  cfg.Stream.ReadTimeout,
		PingInterval: cfg.Stream.PingInterval,
	}, log)

	manager := worker.NewManager(stream, liquidations, liquidations, worker.Config{
		ReconnectDelay:    cfg.Stream.ReconnectDelay,
		MaxRetries:        cfg.Stream.MaxRetries,
		StopNotifyTimeout: cfg.Notify.Timeout,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("Starting bot...",
		slog.String("threshold", cfg.Threshold.String()),
		slog.String("value_unit", cfg.Alert.ValueUnit),
		slog.Bool("dry_run", cfg.DryRun),
		slog.Int("max_retries", cfg.Stream.MaxRetries),
		slog.String("exit_policy", string(cfg.Stream.ExitPolicy)))

	return exitCode(ctx, manager.Run(ctx), cfg.Stream.ExitPolicy, log)
}

// exitCode: 0 - остановка по сигналу; после исчерпания попыток
// exit -> 1, idle -> ждем сигнала и 0; любая другая ошибка -> 1.
func exitCode(ctx context.Context, runErr error, policy config.ExitPolicy, log *slog.Logger) int {
	switch {
	case runErr == nil:
		log.Info("Bot stopped gracefully")
		return 0
	case errors.Is(runErr, domain.ErrRetriesExhausted) && policy == config.ExitPolicyIdle:
		log.Warn("Stream stopped, idling until shutdown signal", slog.String("error", runErr.Error()))
		<-ctx.Done()
		log.Info("Bot stopped gracefully")
		return 0
	default:
		log.Error("Bot stopped", slog.String("error", runErr.Error()))
		return 1
	}
}
