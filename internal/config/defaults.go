package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultDBPath = "storage.db" // Default SQLite database name

	// DefaultHistoryWait bounds how long the responder waits for the message
	// cache of a channel to populate before treating it as empty.
	DefaultHistoryWait = 400 * time.Millisecond

	// DefaultFlushDelay is the pause between the last reply send and the
	// conversation-close request, giving delivery a moment to flush.
	DefaultFlushDelay = 250 * time.Millisecond
)

// DefaultSchedulerTasks enables the built-in background tasks.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"suppression_flush": {Schedule: "0 */30 * * * *", Enabled: true},
	"db_maintenance":    {Schedule: "0 0 4 * * *", Enabled: true},
}
