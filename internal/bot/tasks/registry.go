package tasks

import "context"

// ScheduledTaskFunc is the signature of a background task.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the map of task names to task functions known to
// the application. Task names here must match the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	return map[string]ScheduledTaskFunc{
		// suppression_flush re-persists the replied-user set. Per-dispatch
		// persists are best effort; this catches any that failed.
		"suppression_flush": func(ctx context.Context) error {
			return deps.Suppression.Persist(ctx)
		},

		// db_maintenance vacuums and analyzes the SQLite database.
		"db_maintenance": func(ctx context.Context) error {
			return deps.Store.RunMaintenance(ctx)
		},
	}
}
