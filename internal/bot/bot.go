// Package bot implements lifecycle management and component orchestration
// for the dmgreet auto-responder.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dmgreet/dmgreet/internal/config"
	"github.com/dmgreet/dmgreet/internal/discord"
	"github.com/dmgreet/dmgreet/internal/responder"
)

// Bot runs the Discord gateway and the background scheduler and manages
// their shutdown.
type Bot struct {
	logger      *slog.Logger
	cfg         *config.Config
	gateway     *discord.Client
	scheduler   *Scheduler
	suppression *responder.SuppressionStore
}

// NewBot creates a new bot orchestrator.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	gateway *discord.Client,
	scheduler *Scheduler,
	suppression *responder.SuppressionStore,
) *Bot {
	return &Bot{
		logger:      logger.With("component", "bot_orchestrator"),
		cfg:         cfg,
		gateway:     gateway,
		scheduler:   scheduler,
		suppression: suppression,
	}
}

// Run starts all components and blocks until ctx is cancelled or a component
// fails. On the way out the in-memory suppression set is cleared; its
// persisted copy is left untouched.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "test_mode", b.cfg.Responder.TestMode)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Discord gateway...")
		if err := b.gateway.Run(gCtx); err != nil {
			return fmt.Errorf("discord gateway failed: %w", err)
		}
		b.logger.Info("Discord gateway stopped.")
		return nil
	})

	g.Go(func() error {
		b.logger.Info("Starting scheduler...")
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()

	b.suppression.Clear()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
