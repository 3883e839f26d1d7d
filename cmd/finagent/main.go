package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"FinAgent/internal/app"
	"FinAgent/internal/config"
	"FinAgent/internal/dashboard"
	"FinAgent/internal/logging"
	"FinAgent/internal/notifier"
	"FinAgent/internal/scheduler"
)

const version = "0.3.0"

func main() {
	app.PrintBanner(version)

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Setup(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init app")
	}
	defer a.Close()

	// Telegram shell and scheduled watchlist report
	var tn *notifier.TelegramNotifier
	var messenger scheduler.Messenger
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		messenger = tn
	}
	sched := scheduler.NewScheduler(ctx, a.Orchestrator, messenger, a.Recorder)
	sched.Mode = a.Mode
	sched.SetPeriod(a.Period)
	if err := sched.Register(cfg.Schedule.Cron, cfg.Schedule.Query); err != nil {
		log.Fatal().Err(err).Msg("register cron task")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing watchlist report now")
		go sched.RunNow()
	}

	gin.SetMode(gin.ReleaseMode)
	dash := dashboard.NewServer(a.Orchestrator, a.Recorder, cfg.Output.Dir, a.Mode, a.Period)
	dash.AllowedOrigins = cfg.Server.AllowedOrigins
	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: dash.SetupRoutes(),
	}
	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("dashboard server")
		}
	}()

	log.Info().Msg("FinAgent is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dashboard shutdown")
	}
	log.Info().Msg("FinAgent stopped")
}
