// Package tasks contains the background tasks run by the scheduler, along
// with their registration logic.
package tasks

import (
	"log/slog"

	"github.com/dmgreet/dmgreet/internal/database"
	"github.com/dmgreet/dmgreet/internal/responder"
)

// TaskDeps provides dependencies for scheduled tasks.
type TaskDeps struct {
	Logger      *slog.Logger
	Store       database.Store
	Suppression *responder.SuppressionStore
}
