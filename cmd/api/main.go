package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/voicemood/internal/application"
	appanalysis "github.com/bryanwahyu/voicemood/internal/application/analysis"
	appspeech "github.com/bryanwahyu/voicemood/internal/application/speech"
	"github.com/bryanwahyu/voicemood/internal/config"
	"github.com/bryanwahyu/voicemood/internal/infra/httpserver"
	"github.com/bryanwahyu/voicemood/internal/infra/records"
	"github.com/bryanwahyu/voicemood/internal/logger"
	"github.com/bryanwahyu/voicemood/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("config load error", zap.Error(err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		log, _ = zap.NewProduction()
		log.Warn("invalid log config, using production logger", zap.Error(err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	buckets, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("storage init error", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer buckets.Close()

	provider, err := newProvider(ctx, cfg.AI)
	if err != nil {
		log.Fatal("ai provider init error", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	}
	if c, ok := provider.(io.Closer); ok {
		defer c.Close()
	}

	audioStore := records.NewAudioStore(buckets.Audio)
	analysisSvc := &appanalysis.Service{
		Results:  records.NewResultStore(buckets.Results, application.SystemClock{}, log),
		Audio:    audioStore,
		Analyzer: provider,
		Log:      log.With(zap.String("service", "analysis")),
	}
	speechSvc := &appspeech.Service{
		Audio:       audioStore,
		Synthesizer: provider,
		Transcriber: provider,
		Log:         log.With(zap.String("service", "speech")),
	}

	handler := httpserver.NewRouter(ctx, analysisSvc, speechSvc, httpserver.Options{
		Log:            log,
		StaticDir:      cfg.Server.StaticDir,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefill:     cfg.RateLimit.RefillRate,
		HealthChecks: map[string]middleware.HealthChecker{
			"results": buckets.Results,
			"audio":   buckets.Audio,
		},
	})

	read, write, idle := cfg.Server.Timeouts()
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("provider", cfg.AI.Provider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
