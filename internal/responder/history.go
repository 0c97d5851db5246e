package responder

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// HistoryProber answers whether a conversation already contains messages
// other than the one that just arrived.
//
// The host's message cache fills asynchronously relative to the event that
// delivers a new message, so an unpopulated cache gets a bounded grace
// period before the channel is treated as empty. All failures and
// unrecognized cache shapes read as "no history"; the false negative at
// worst grows the suppression set, never double-replies.
type HistoryProber struct {
	cache  MessageCache
	wait   time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewHistoryProber creates a prober waiting at most wait for the cache of a
// channel to populate.
func NewHistoryProber(cache MessageCache, wait time.Duration, logger *slog.Logger) *HistoryProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryProber{
		cache:  cache,
		wait:   wait,
		logger: logger.With("component", "history"),
	}
}

// HasHistory reports whether channelID contains any message whose id differs
// from excludeMessageID. It never fails. Concurrent probes for the same
// channel and message share one execution.
func (p *HistoryProber) HasHistory(ctx context.Context, channelID, excludeMessageID string) bool {
	v, _, _ := p.group.Do(channelID+"\x00"+excludeMessageID, func() (any, error) {
		return p.probe(ctx, channelID, excludeMessageID), nil
	})
	has, _ := v.(bool)
	return has
}

func (p *HistoryProber) probe(ctx context.Context, channelID, excludeMessageID string) bool {
	if src, ok := p.cache.Lookup(ctx, channelID); ok {
		return hasOther(src, excludeMessageID)
	}

	ready, release := p.cache.Ready(channelID)
	defer release()

	timer := time.NewTimer(p.wait)
	defer timer.Stop()

	// Exactly one arm wins; select is the single-fire guard between the
	// readiness signal and the timeout.
	select {
	case <-ready:
	case <-timer.C:
	case <-ctx.Done():
		return false
	}

	if src, ok := p.cache.Lookup(ctx, channelID); ok {
		return hasOther(src, excludeMessageID)
	}

	p.logger.DebugContext(ctx, "Message cache still unpopulated, assuming no history",
		"channel_id", channelID)
	return false
}

// hasOther answers the unified cache question across the three source
// shapes. An unrecognized shape reads as no history.
func hasOther(src MessageSource, excludeMessageID string) bool {
	switch src := src.(type) {
	case MessageLister:
		for _, m := range src.Messages() {
			if m.ID != excludeMessageID {
				return true
			}
		}
		return false
	case MessageCounter:
		// The just-arrived message counts as one.
		return src.Count() > 1
	case MessageRanger:
		found := false
		src.Range(func(m CachedMessage) bool {
			if m.ID != excludeMessageID {
				found = true
				return false
			}
			return true
		})
		return found
	default:
		return false
	}
}
