package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pkgz/lgr"

	"github.com/agalitsyn/checklist-bot/internal/app"
	"github.com/agalitsyn/checklist-bot/internal/logging"
	"github.com/agalitsyn/checklist-bot/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := ParseFlags()
	logging.Setup(cfg.Log.Level, os.Stdout, cfg.Token.Unmask())

	if cfg.Debug {
		lgr.Printf("[DEBUG] running with config")
		fmt.Fprintln(os.Stdout, cfg.String())
	}

	store, closeStore, err := storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN.Unmask())
	if err != nil {
		lgr.Fatalf("[ERROR] could not open store: %s", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			lgr.Printf("[WARN] could not close store: %s", err)
		}
	}()

	bot, err := app.NewBot(app.BotConfig{
		UpdateTimeout: cfg.UpdateTimeout,
		KeyPrefix:     cfg.Checklist.KeyPrefix,
		FilterMode:    cfg.Checklist.FilterMode,
		CorruptPolicy: cfg.Checklist.CorruptPolicy,
		Debounce:      cfg.Checklist.Debounce,
	}, cfg.Token.Unmask(), lgr.Default(), store)
	if err != nil {
		lgr.Fatalf("[ERROR] could not init bot: %s", err)
	}

	lgr.Printf("[INFO] started, store %s", cfg.Store.Driver)
	bot.Start(ctx)
	lgr.Printf("[DEBUG] stopped: %v", ctx.Err())
}
