package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"gopkg.in/natefinch/lumberjack.v2"

	"shipment-kpi/internal/config"
	"shipment-kpi/internal/service/dashboard"
	generate_excel "shipment-kpi/internal/service/generate-excel"
	"shipment-kpi/internal/storage/memory"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"path" env:"CONFIG_PATH" default:"./config/local.yaml"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("kpi"),
		kong.Description("Shipment milestone KPI service"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg := config.MustConfig(CLI.Config)

	errorLog := &lumberjack.Logger{
		Filename:   cfg.ErrorLog,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	defer errorLog.Close()

	log := setupLogger(cfg.Env, os.Stdout, errorLog)

	floor, err := cfg.KPI.Floor()
	if err != nil {
		log.Error("invalid kpi config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	storage := memory.New()

	dashboardService := dashboard.NewService(log, storage, dashboard.Options{
		Floor:        floor,
		StatusColumn: cfg.KPI.StatusColumn,
		Ports:        cfg.KPI.Ports,
		PageSize:     cfg.KPI.DefaultPageSize,
	})
	excelService := generate_excel.NewGenerateService(dashboardService)

	log.Info("server started",
		slog.String("address", cfg.Address),
		slog.String("env", cfg.Env),
		slog.String("floor_date", cfg.KPI.FloorDate),
	)

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      routes(*cfg, log, dashboardService, excelService),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
	}

	log.Info("server stopped")
}

type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	// Всегда пишем в основной вывод (stdout)
	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	// Если это ошибка: пишем в файл
	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		if fileErr := h.errorHandler.Handle(ctx, r.Clone()); fileErr != nil {
			return fileErr
		}
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func setupLogger(env string, out, errorOut io.Writer) *slog.Logger {
	// Определяем уровень логирования
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	// 1. Основной handler: пишет ВСЁ в stdout
	var coreHandler slog.Handler
	switch env {
	case envDev:
		coreHandler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	default:
		coreHandler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	// 2. Файловый handler: только ошибки, с ротацией
	errorHandler := slog.NewTextHandler(errorOut, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	return slog.New(&dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	})
}
