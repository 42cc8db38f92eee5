package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"interview-proctor/api/internal/config"
	"interview-proctor/api/internal/handle"
	"interview-proctor/api/internal/logger"
	"interview-proctor/api/internal/notify"
	"interview-proctor/api/internal/proctor"
	"interview-proctor/api/internal/proctor/gemini"
	"interview-proctor/api/internal/ratelimit"
	"interview-proctor/api/internal/store"
	"interview-proctor/api/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.IsDev()); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	hub := ws.NewHub()
	sinks := proctor.Sinks{proctor.LogSink{}, hub}

	var lister handle.ViolationLister
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := store.Open(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatal("open database", zap.Error(err))
		}
		defer db.Close()
		repo := store.NewViolationRepo(db)
		sinks = append(sinks, store.NewSink(repo))
		lister = repo
		log.Info("violation persistence enabled")
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal("telegram notifier", zap.Error(err))
		}
		defer tg.Close()
		sinks = append(sinks, tg)
		log.Info("telegram alerts enabled", zap.Int64("chat_id", cfg.TelegramChatID))
	}

	engine := gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	analyzer := proctor.NewAnalyzer(engine, sinks, proctor.AnalyzerConfig{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		DefaultConfidence:   cfg.DefaultConfidence,
		Strictness:          cfg.Strictness,
	})
	queue := proctor.NewQueue(
		func(ctx context.Context, f *proctor.Frame) { _, _ = analyzer.Analyze(ctx, f) },
		time.Duration(cfg.AnalysisIntervalSec)*time.Second,
		time.Duration(cfg.AnalyzeTimeoutSec)*time.Second,
	)
	session := proctor.NewSession(analyzer, queue, hub.Signal)

	limiter := ratelimit.New(
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSec)*time.Second,
		time.Duration(cfg.RateLimitSweepSec)*time.Second,
	)
	defer limiter.Close()

	h := handle.New(analyzer, lister)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/proctor/analyze", h.Analyze)
	mux.HandleFunc("/api/proctor/violations", h.Violations)
	mux.Handle("/api/proctor/events", ws.NewHandler(hub, session))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      ratelimit.SecurityHeaders(limiter.Middleware("/api/", mux)),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("proctor-api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http serve", zap.Error(err))
		}
	}()

	<-done
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	session.Disconnect()
	hub.Close()
	log.Info("goodbye")
}
