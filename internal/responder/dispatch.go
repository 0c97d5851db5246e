package responder

import (
	"context"
	"strings"
	"time"
)

// Dispatch sends the configured reply messages to channelID, closes the
// conversation, and records authorID as replied to. It is invoked only
// after an Allow verdict.
//
// Sends are sequential and isolated: a failure on one message is logged and
// the remaining messages are still attempted. After the sends a short delay
// lets delivery flush before the close request. An all-blank configuration
// does nothing at all and does not count as "replied".
//
// Once dispatch begins there is no cancellation; sends and the close run to
// completion.
func (r *Responder) Dispatch(ctx context.Context, channelID, authorID string) {
	log := r.logger.With("channel_id", channelID, "user_id", authorID)

	bodies := composeBodies(r.cfg.ReplyMessage1, r.cfg.ReplyMessage2, r.cfg.ReplyMessage3)
	if len(bodies) == 0 {
		log.WarnContext(ctx, "All reply messages blank, nothing to send")
		return
	}

	for i, body := range bodies {
		err := r.sender.Send(ctx, channelID, body, SendOptions{SuppressMentions: true})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send reply message", "index", i, "error", err)
		}
	}

	time.Sleep(r.cfg.FlushDelay)

	if err := r.closer.Close(ctx, channelID); err != nil {
		log.ErrorContext(ctx, "Failed to close conversation", "error", err)
	}

	if !r.cfg.TestMode {
		r.suppression.Add(authorID)
		go func() {
			_ = r.suppression.Persist(context.WithoutCancel(ctx))
		}()
	}

	log.InfoContext(ctx, "Auto-reply dispatched", "messages", len(bodies), "test_mode", r.cfg.TestMode)
}

// composeBodies trims the configured reply texts and drops blank ones,
// preserving order.
func composeBodies(raw ...string) []string {
	bodies := make([]string, 0, len(raw))
	for _, b := range raw {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		bodies = append(bodies, b)
	}
	return bodies
}
