package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/calcetto/config"
	"github.com/Dosada05/calcetto/db"
	"github.com/Dosada05/calcetto/handlers"
	"github.com/Dosada05/calcetto/live"
	"github.com/Dosada05/calcetto/metrics"
	"github.com/Dosada05/calcetto/repositories"
	api "github.com/Dosada05/calcetto/routes"
	"github.com/Dosada05/calcetto/services"
	"github.com/Dosada05/calcetto/squads"
	"github.com/Dosada05/calcetto/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// @title Calcetto API
// @version 1.0
// @description Состав, созыв, команды, результаты и статистика еженедельного матча.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	var logOutput io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // дней
			Compress:   true,
		}
		defer rotating.Close()
		logOutput = rotating
	}
	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Хранилище: Postgres или память процесса
	var (
		playerRepo repositories.PlayerRepository
		matchRepo  repositories.MatchRepository
	)
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := db.Migrate(ctx, dbConn); err != nil {
			logger.Error("failed to apply database schema", slog.Any("error", err))
			os.Exit(1)
		}
		playerRepo = repositories.NewPostgresPlayerRepository(dbConn)
		matchRepo = repositories.NewPostgresMatchRepository(dbConn)
		logger.Info("database connection established")
	} else {
		store := repositories.NewMemoryStore()
		playerRepo = store.Players()
		matchRepo = store.Matches()
		logger.Warn("DATABASE_URL is not set, using in-memory store; data is lost on restart")
	}

	// Загрузчик файлов (Cloudflare R2) не обязателен
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("R2 is not configured, photo uploads are disabled and backups are returned inline")
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация сервисов
	generator := squads.NewBalancedGenerator(cfg.BalancerMaxCandidates)
	authService := services.NewAuthService(playerRepo)
	playerService := services.NewPlayerService(playerRepo, uploader)
	matchService := services.NewMatchService(matchRepo, wsHub)
	convocationService := services.NewConvocationService(matchRepo, playerRepo, wsHub)
	teamService := services.NewTeamService(matchRepo, playerRepo, generator, wsHub)
	resultService := services.NewResultService(matchRepo, playerRepo, wsHub)
	statsService := services.NewStatsService(matchRepo, playerRepo)
	backupService := services.NewBackupService(playerRepo, matchRepo, uploader)
	logger.Info("Services initialized", slog.String("generator", generator.GetName()))

	if cfg.AdminPIN != "" {
		admin, err := authService.EnsureAdmin(ctx, cfg.AdminPIN)
		if err != nil {
			logger.Error("failed to ensure admin account", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("admin account ready", slog.Int("player_id", admin.ID), slog.String("username", services.AdminNickname))
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey, logger),
		Player:      handlers.NewPlayerHandler(playerService, logger),
		Match:       handlers.NewMatchHandler(matchService, logger),
		Convocation: handlers.NewConvocationHandler(convocationService, logger),
		Team:        handlers.NewTeamHandler(teamService, logger),
		Result:      handlers.NewResultHandler(resultService, logger),
		Stats:       handlers.NewStatsHandler(statsService, logger),
		Backup:      handlers.NewBackupHandler(backupService, logger),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, matchService, logger),
	}, api.Options{
		JWTSecret:          []byte(cfg.JWTSecretKey),
		Accounts:           playerRepo,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Metrics:            metrics.Handler(registry),
		Logger:             logger,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	// закрываем websocket-клиентов
	stop()
	logger.Info("application exited")
}
