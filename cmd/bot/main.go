package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"calcbot/internal/bot"
	"calcbot/internal/config"
	"calcbot/internal/database"
	"calcbot/internal/events"
	"calcbot/internal/logging"
	"calcbot/internal/models"
	"calcbot/internal/repository"
	"calcbot/internal/service"
	"calcbot/internal/singleton"
	"calcbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	// Единственный экземпляр на машину: lock-файл, затем зачистка соседей
	lock, err := singleton.Acquire(cfg.Singleton.LockPath, &logger)
	if err != nil {
		if errors.Is(err, singleton.ErrAlreadyRunning) {
			logger.Error().Err(err).Msg("Бот уже запущен, выходим")
		}
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Singleton.RivalScan {
		singleton.NewRivalScanner(&logger).TerminateRivals(ctx)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, subscriptionCache := initSubscriptionCache(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	eventBus := events.NewEventBus()
	subscribeAuditEvents(eventBus, &logger)

	// Инициализация бизнес-сервисов
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))
	subscriptionService := service.NewSubscriptionService(subscriptionCache, tgService, cfg.Telegram.Channel, service.SystemClock(), &logger)
	userService := service.NewUserService(db, subscriptionService, eventBus, cfg, &logger)
	calcService := service.NewCalculatorService(db, service.NewExpressionEvaluator(), eventBus, &logger)
	broadcastService := service.NewBroadcastService(db, tgService, eventBus, cfg.Bot.BroadcastRate, &logger)
	metrics := bot.NewMetrics()

	// Фоновое обслуживание: чистка кэша подписок и старых данных
	maintenance := worker.NewMaintenance(
		db, subscriptionService,
		time.Duration(cfg.Bot.MaintenanceInterval)*time.Second,
		cfg.Bot.RetentionDays,
		&logger,
	)
	go maintenance.Start(ctx)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	telegramBot, err := bot.NewBot(tgService, cfg, userService, calcService, broadcastService, eventBus, metrics, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	return superviseBot(ctx, telegramBot, &logger)
}

// superviseBot перезапускает цикл опроса после конфликта getUpdates:
// предыдущему владельцу токена дается время отпустить соединение.
func superviseBot(ctx context.Context, telegramBot *bot.Bot, logger *zerolog.Logger) error {
	logger.Info().Msg("Бот запущен...")

	for {
		err := telegramBot.Run(ctx)
		if errors.Is(err, bot.ErrConflict) {
			logger.Warn().Dur("delay", models.ConflictRestartDelay).Msg("Конфликт getUpdates, перезапуск цикла опроса")
			select {
			case <-ctx.Done():
				logger.Info().Msg("Shutdown complete.")
				return nil
			case <-time.After(models.ConflictRestartDelay):
			}
			continue
		}
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("Shutdown complete.")
			return nil
		}
		return err
	}
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}
	return db, nil
}

// initSubscriptionCache собирает кэш подписок: Redis как primary,
// память как fallback. Без адреса Redis остается только память.
func initSubscriptionCache(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverCacheRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisCacheRepository(redisClient, models.SubscriptionRedisTTL)
	fallback := repository.NewMemoryCacheRepository()
	return redisClient, repository.NewFailoverCacheRepository(primary, fallback, logger)
}

// subscribeAuditEvents пишет доменные события в журнал: по ним видно
// активность бота без чтения базы.
func subscribeAuditEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventCalculationDone, func(ev *events.Event) error {
		var payload events.CalculationEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Debug().
			Int64("user_id", payload.UserID).
			Str("expression", payload.Expression).
			Str("result", payload.Result).
			Msg("Вычисление выполнено")
		return nil
	})

	broadcastHandler := func(ev *events.Event) error {
		var payload events.BroadcastEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Int64("broadcast_id", payload.BroadcastID).
			Int64("admin_id", payload.AdminID).
			Int64("total", payload.TotalUsers).
			Int64("sent", payload.SentCount).
			Int64("failed", payload.FailedCount).
			Str("status", payload.Status).
			Msg("Событие рассылки")
		return nil
	}
	bus.Subscribe(events.EventBroadcastStarted, broadcastHandler)
	bus.Subscribe(events.EventBroadcastFinished, broadcastHandler)

	bus.Subscribe(events.EventSubscriptionChange, func(ev *events.Event) error {
		var payload events.SubscriptionEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Debug().
			Int64("user_id", payload.UserID).
			Bool("subscribed", payload.Subscribed).
			Msg("Статус подписки изменился")
		return nil
	})
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Prometheus metrics server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
