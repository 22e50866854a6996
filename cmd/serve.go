package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"ECG_monitor/configs"
	"ECG_monitor/internal/database"
	"ECG_monitor/internal/handlers"
	"ECG_monitor/internal/middleware"
	"ECG_monitor/internal/models"
	"ECG_monitor/internal/mqtt_client"
	"ECG_monitor/internal/stream"
)

const (
	shutdownTimeout = 30 * time.Second
	reportWorkers   = 2
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запуск сервиса мониторинга",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Загрузка конфигурации
	cfg := configs.LoadConfig()
	configs.InitLogger(cfg.App.LogLevel, cfg.App.Env)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("конфигурация: %w", err)
	}
	slog.Info("=== ECG MONITOR (Stream Processing Architecture) ===", "version", version)
	slog.Info("Конфигурация загружена",
		"db", cfg.Database.Host+":"+cfg.Database.Port, "mqtt", cfg.MQTT.Broker, "nats", cfg.NATS.Enabled)

	// 2. Инициализация базы данных
	db, err := database.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("инициализация БД: %w", err)
	}
	defer database.CloseDatabase()

	if err := database.RunMigrations(db); err != nil {
		return fmt.Errorf("миграции: %w", err)
	}
	repo := database.NewRepository(db)

	// 3. Шина событий (необязательна)
	var publisher handlers.SummaryPublisher
	if cfg.NATS.Enabled {
		nc, err := stream.Connect(cfg.NATS.URL)
		if err != nil {
			slog.Warn("NATS недоступен, продолжаем без шины событий", "url", cfg.NATS.URL, "error", err)
		} else {
			defer nc.Drain()
			publisher = stream.NewPublisher(nc, cfg.NATS.SubjectPrefix)
			slog.Info("NATS подключен", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
		}
	}

	// 4. Создание основных компонентов
	dataBuffer := handlers.NewDataBuffer(repo, 0, 0)
	sessionManager, err := handlers.NewSessionManager(repo, dataBuffer,
		cfg.ECG.Filters, cfg.ECG.ReorderWindow, cfg.ECG.LiveWindow)
	if err != nil {
		dataBuffer.Stop()
		return err
	}
	grpcStreamer := handlers.NewECGStreamServer()
	hub := handlers.NewHub()
	reporter := handlers.NewReporter(repo, publisher, cfg.ECG.Filters, reportWorkers)

	// 5. MQTT Stream Processor
	mqttProcessor := handlers.NewMQTTStreamProcessor(
		sessionManager,
		handlers.NewArtifactMonitor(),
		publisher,
		cfg.ECG.AnalysisInterval,
		grpcStreamer, hub,
	)
	onStarted := mqttProcessor.SessionEvent("started")
	onStopped := mqttProcessor.SessionEvent("stopped")
	sessionManager.SetCallbacks(onStarted, func(s *models.ECGSession) {
		onStopped(s)
		reporter.Enqueue(s)
	})

	// 6. MQTT клиент; подписка выполняется при каждом подключении
	mqttClient, err := mqtt_client.InitClient(cfg.MQTT, mqttProcessor.MessageHandler())
	if err != nil {
		mqttProcessor.Stop()
		dataBuffer.Stop()
		return err
	}

	errCh := make(chan error, 2)

	// 7. Запуск gRPC сервера
	grpcServer := grpc.NewServer()
	grpcStreamer.Register(grpcServer)
	lis, err := net.Listen("tcp", ":"+cfg.App.GRPCPort)
	if err != nil {
		mqttClient.Disconnect(250)
		mqttProcessor.Stop()
		dataBuffer.Stop()
		return fmt.Errorf("gRPC listener: %w", err)
	}
	go func() {
		slog.Info("gRPC Stream Server запущен", "port", cfg.App.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC сервер: %w", err)
		}
	}()

	// 8. Запуск REST API сервера
	restAPI := handlers.NewRESTAPIServer(sessionManager, reporter, mqttProcessor, grpcStreamer, hub,
		func() error { return database.HealthCheck(db) })
	if cfg.Auth.JWTSecret != "" {
		restAPI.SetAuth(middleware.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer).RequireAuth())
		slog.Info("🔒 REST API требует JWT", "issuer", cfg.Auth.Issuer)
	} else {
		slog.Warn("JWT_SECRET не задан, REST API открыт без авторизации")
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           restAPI.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("REST API Server запущен", "port", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP сервер: %w", err)
		}
	}()

	slog.Info("Сервис запущен → Ctrl+C для остановки")
	slog.Info("MQTT → Stream Processor → Stream Buffer → Live Analyzer → gRPC / WebSocket / NATS")
	slog.Info("MQTT → Stream Processor → Data Buffer → Database → Reporter")

	// 9. Graceful shutdown
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		slog.Error("❌ Сервер остановился с ошибкой", "error", runErr)
	}

	slog.Info("Graceful shutdown...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Остановка компонентов в обратном порядке
	mqttClient.Disconnect(250)
	mqttProcessor.Stop()
	sessionManager.StopAll(shutdownCtx)
	reporter.Stop()
	grpcStreamer.Stop()
	grpcServer.GracefulStop()
	hub.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP сервер остановлен с ошибкой", "error", err)
	}
	dataBuffer.Stop()

	slog.Info("Сервис полностью остановлен")
	return runErr
}
