package responder

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmgreet/dmgreet/internal/config"
)

// Deps provides the collaborators the responder consumes.
type Deps struct {
	Logger        *slog.Logger
	Config        *config.ResponderConfig
	Channels      ChannelDirectory
	Identity      Identity
	Relationships Relationships
	Memberships   Memberships
	Cache         MessageCache
	Sender        Sender
	Closer        Closer
	Suppression   *SuppressionStore
}

// Responder is the auto-reply engine. One instance handles all inbound
// message events; overlapping invocations are tolerated.
type Responder struct {
	logger        *slog.Logger
	cfg           *config.ResponderConfig
	channels      ChannelDirectory
	identity      Identity
	relationships Relationships
	memberships   Memberships
	sender        Sender
	closer        Closer
	suppression   *SuppressionStore
	prober        *HistoryProber
}

// New creates a responder from its dependencies.
func New(deps Deps) *Responder {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "responder")

	return &Responder{
		logger:        log,
		cfg:           deps.Config,
		channels:      deps.Channels,
		identity:      deps.Identity,
		relationships: deps.Relationships,
		memberships:   deps.Memberships,
		sender:        deps.Sender,
		closer:        deps.Closer,
		suppression:   deps.Suppression,
		prober:        NewHistoryProber(deps.Cache, deps.Config.HistoryWait, log),
	}
}

// HandleMessage processes one inbound message event end to end: decide, and
// on Allow dispatch the replies. Panics are recovered and logged so one bad
// event cannot disable handling for subsequent events.
func (r *Responder) HandleMessage(ctx context.Context, msg Incoming) {
	log := r.logger.With(
		"message_id", msg.MessageID,
		"channel_id", msg.ChannelID,
		"user_id", msg.AuthorID,
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.ErrorContext(ctx, "Panic in message handler", "panic", rec)
		}
	}()

	start := time.Now()

	verdict, reason := r.Decide(ctx, msg)
	if verdict != Allow {
		log.DebugContext(ctx, "Message suppressed", "reason", reason, "duration", time.Since(start))
		return
	}

	r.Dispatch(ctx, msg.ChannelID, msg.AuthorID)
	log.InfoContext(ctx, "Finished handling message", "duration", time.Since(start))
}
