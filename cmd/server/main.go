// Package main - точка входа REST API сервера Rollbook.
//
// Rollbook ведёт ростер контактов с оценками и посещаемостью. Сервер
// поднимает HTTP API поверх CQRS-слоя приложения.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, event bus
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rollbook-hub/rollbook/config"
	"github.com/rollbook-hub/rollbook/internal/application/command"
	"github.com/rollbook-hub/rollbook/internal/application/eventhandler"
	"github.com/rollbook-hub/rollbook/internal/application/query"
	"github.com/rollbook-hub/rollbook/internal/domain/person"
	"github.com/rollbook-hub/rollbook/internal/domain/shared"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/messaging"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/memory"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/postgres"
	"github.com/rollbook-hub/rollbook/internal/infrastructure/persistence/redis"
	httpserver "github.com/rollbook-hub/rollbook/internal/interface/http"
	"github.com/rollbook-hub/rollbook/internal/interface/http/handlers"
	"github.com/rollbook-hub/rollbook/pkg/logger"
	"github.com/rollbook-hub/rollbook/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Rollbook API server",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"version", cfg.App.Version,
	)

	httpLog := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	var repo person.Repository
	var dbConn *postgres.Connection

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err = retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		}, retry.WithMaxAttempts(5), retry.WithInitialDelay(500*time.Millisecond),
			retry.WithRetryIf(func(error) bool { return true }))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		log.Info("database connection established")

		// ─────────────────────────────────────────────────────────────────
		// 4. ЗАПУСК МИГРАЦИЙ
		// ─────────────────────────────────────────────────────────────────
		if cfg.Database.AutoMigrate {
			log.Info("running database migrations...")
			migrator := postgres.NewMigrator(dbConn)
			if err := migrator.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations completed")
		}

		repo = postgres.NewPersonRepository(dbConn)
	} else {
		if cfg.IsProduction() {
			return errors.New("DATABASE_URL is required in production")
		}
		// Режим разработки без PostgreSQL: весь ростер живёт в памяти.
		log.Warn("DATABASE_URL not set, using in-memory repository")
		repo = memory.NewPersonRepository()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var cache person.Cache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			cache = redis.NewPersonCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// Подписчики: инвалидация кеша и алерты о пропусках.
	invalidator := eventhandler.NewOnPersonChangedHandler(cache, log)
	for _, et := range []shared.EventType{
		shared.EventPersonReplaced,
		shared.EventPersonDeleted,
		shared.EventGradeAdded,
		shared.EventGradeRemoved,
		shared.EventAttendanceMarked,
	} {
		if err := eventBus.Subscribe(et, invalidator); err != nil {
			return fmt.Errorf("failed to subscribe cache invalidator: %w", err)
		}
	}

	absenceAlerts := eventhandler.NewOnAbsenceDetectedHandler(eventhandler.AbsenceAlertConfig{
		MinStreak: cfg.Scheduler.AbsenceStreakThreshold,
		Logger:    log,
	})
	if err := eventBus.Subscribe(shared.EventAbsenceDetected, absenceAlerts); err != nil {
		return fmt.Errorf("failed to subscribe absence alerts: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	addPersonCmd := command.NewAddPersonHandler(repo, cache, eventBus)
	editPersonCmd := command.NewEditPersonHandler(repo, cache, eventBus)
	deletePersonCmd := command.NewDeletePersonHandler(repo, cache, eventBus)
	addGradeCmd := command.NewAddGradeHandler(repo, cache, eventBus)
	removeGradeCmd := command.NewRemoveGradeHandler(repo, cache, eventBus)
	markAttendanceCmd := command.NewMarkAttendanceHandler(repo, cache, eventBus)

	// При недоступном Redis оба кеша остаются nil и запросы идут в репозиторий.
	var searchCache query.SearchCache
	var summaryCache query.SummaryCache
	if redisCache != nil {
		searchCache = redisCache
		summaryCache = redisCache
	}

	getPersonQuery := query.NewGetPersonHandler(repo, cache, 0)
	listPersonsQuery := query.NewListPersonsHandler(repo)
	findPersonsQuery := query.NewFindPersonsHandler(repo, searchCache, 0)
	summaryQuery := query.NewAttendanceSummaryHandler(repo, summaryCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if dbConn != nil {
		healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	}
	if redisCache != nil {
		healthChecker.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeyHashes = cfg.HTTP.APIKeyHashes

	httpDeps := httpserver.Dependencies{
		AddPersonHandler:         addPersonCmd,
		EditPersonHandler:        editPersonCmd,
		DeletePersonHandler:      deletePersonCmd,
		AddGradeHandler:          addGradeCmd,
		RemoveGradeHandler:       removeGradeCmd,
		MarkAttendanceHandler:    markAttendanceCmd,
		GetPersonHandler:         getPersonQuery,
		ListPersonsHandler:       listPersonsQuery,
		FindPersonsHandler:       findPersonsQuery,
		AttendanceSummaryHandler: summaryQuery,
		Logger:                   httpLog,
		HealthChecker:            healthChecker,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Rollbook API server is running", "http_address", httpServer.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus и база данных закроются через defer

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
