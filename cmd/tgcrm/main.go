// Package main contains the entrypoint for the Telegram CRM backend.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tgcrm/internal/app"
	"tgcrm/internal/config"
	"tgcrm/internal/database"
	"tgcrm/internal/gemini"
	"tgcrm/internal/logger"
	"tgcrm/internal/poller"
	"tgcrm/internal/server"
	"tgcrm/internal/telegram"
	"tgcrm/internal/ws"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, database,
// Telegram client, AI client, websocket hub, poller, scheduler, HTTP
// server), handles graceful shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	tgClient := telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, log)

	// A failed identity check at startup means the token or base URL is
	// wrong; there is no point polling with it.
	if me := tgClient.GetMe(ctx); me == nil || !me.OK {
		log.Error("Failed to verify bot identity", "base_url", cfg.Telegram.BaseURL)
		return 1
	}

	hub := ws.NewHub(log)
	poll := poller.New(log, tgClient, store, hub)

	sched, err := app.NewScheduler(log, cfg, poll, store)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	srv := server.New(log, cfg, store, tgClient, gemClient, hub)
	application := app.New(log, srv, sched)

	log.Info("Starting application...")
	runErr := application.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Application stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Application stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
