package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/common/version"

	"github.com/kube-rca/sentry-dingding/internal/client"
	"github.com/kube-rca/sentry-dingding/internal/config"
	"github.com/kube-rca/sentry-dingding/internal/handler"
	"github.com/kube-rca/sentry-dingding/internal/logger"
	"github.com/kube-rca/sentry-dingding/internal/service"
	"github.com/kube-rca/sentry-dingding/internal/template"
)

// @title       sentry-dingding
// @version     1.0
// @description Forwards Sentry webhooks to a DingDing robot as markdown messages.
// @BasePath    /
func main() {
	var (
		logOutput       string
		logFormat       string
		logFile         string
		logLevel        string
		envFile         string
		listenAddr      string
		shutdownTimeout time.Duration
	)
	app := kingpin.New(filepath.Base(os.Args[0]), "Sentry to DingDing webhook bridge.")
	app.HelpFlag.Short('h')
	app.Flag("log.level", "Log level, one of [debug, info, warn, error].").Default("info").EnumVar(&logLevel, "debug", "info", "warn", "error")
	app.Flag("log.output", "Log output, one of [stdout, stderr, file].").Default("stderr").EnumVar(&logOutput, "stdout", "stderr", "file")
	app.Flag("log.format", "Log format, one of [json, text].").Default("json").EnumVar(&logFormat, "json", "text")
	app.Flag("log.file", "Log file path when --log.output=file.").PlaceHolder("PATH").StringVar(&logFile)
	app.Flag("env-file", "Optional dotenv file loaded before reading configuration.").Default(".env").StringVar(&envFile)
	app.Flag("server.listen-addr", "Server listen address (default :$PORT).").PlaceHolder(":8080").StringVar(&listenAddr)
	app.Flag("server.shutdown-timeout", "Graceful shutdown timeout.").Default("10s").DurationVar(&shutdownTimeout)
	app.PreAction(func(*kingpin.ParseContext) error {
		if strings.EqualFold(logOutput, "file") && strings.TrimSpace(logFile) == "" {
			return fmt.Errorf("--log.file is required when --log.output=file")
		}
		return nil
	})
	app.Version(version.Print("sentry-dingding"))

	if _, err := app.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to parse commandline arguments: %w", err))
		app.Usage(os.Args[1:])
		os.Exit(2)
	}

	log, logClose, err := logger.NewLogger(logOutput, logFormat, logFile, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logClose()

	// .env 는 없어도 된다 (컨테이너에서는 환경변수로 주입)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load env file", slog.String("path", envFile), slog.Any("err", err))
	}

	cfg := config.Load()
	if listenAddr == "" {
		listenAddr = ":" + cfg.Server.Port
	}
	if cfg.DingDing.WebhookURL == "" {
		log.Warn("DINGDING_WEBHOOK_URL is not set, webhook requests will fail until it is configured")
	}

	gin.SetMode(gin.ReleaseMode)
	dingdingClient := client.NewDingDingClient(cfg.DingDing, log)
	sentryService := service.NewSentryService(dingdingClient, template.NewRenderer(), log)
	r := handler.NewRouter(handler.NewSentryHandler(sentryService, log), sentryService, log)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", listenAddr), slog.String("version", version.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		log.Error("server failed", slog.Any("err", err))
		logClose()
		os.Exit(1)
	case <-quit:
	}

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.Any("err", err))
	}
	log.Info("server exiting")
}
