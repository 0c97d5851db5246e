// Package main contains the entrypoint for the dmgreet auto-responder.
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

	"github.com/dmgreet/dmgreet/internal/bot"
	"github.com/dmgreet/dmgreet/internal/bot/tasks"
	"github.com/dmgreet/dmgreet/internal/config"
	"github.com/dmgreet/dmgreet/internal/database"
	"github.com/dmgreet/dmgreet/internal/discord"
	"github.com/dmgreet/dmgreet/internal/logger"
	"github.com/dmgreet/dmgreet/internal/responder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// suppression state, discord gateway, responder, scheduler), handles graceful
// shutdown, and returns an exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	suppression := responder.NewSuppressionStore(store, log)
	suppression.Load(ctx)

	gateway, err := discord.NewClient(cfg.Discord.Token, log)
	if err != nil {
		log.Error("Failed to create Discord client", "error", err)
		return 1
	}

	rsp := responder.New(responder.Deps{
		Logger:        log,
		Config:        &cfg.Responder,
		Channels:      gateway,
		Identity:      gateway,
		Relationships: gateway,
		Memberships:   gateway,
		Cache:         gateway,
		Sender:        gateway,
		Closer:        gateway,
		Suppression:   suppression,
	})
	gateway.OnMessage(rsp.HandleMessage)

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:      log,
		Store:       store,
		Suppression: suppression,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, gateway, sched, suppression)

	log.Info("Starting dmgreet...")
	runErr := app.Run(ctx)
	log.Info("Run loop finished. Shutting down...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
