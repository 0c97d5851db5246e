package responder

import "context"

// Verdict is the outcome of the eligibility decision.
type Verdict int

const (
	// Suppress means no auto-reply is sent.
	Suppress Verdict = iota
	// Allow means the configured replies are dispatched.
	Allow
)

func (v Verdict) String() string {
	if v == Allow {
		return "allow"
	}
	return "suppress"
}

// Decide runs the ordered short-circuit predicate chain over one inbound
// message, returning the verdict and, for Suppress, the first matching
// reason.
//
// The cheap synchronous facts are checked first; the suppression set,
// guild-membership, and history gates only apply outside test mode (test
// mode is a reply-every-time diagnostic switch).
//
// Lookup failures are resolved locally: an unreadable channel or membership
// reads as Suppress, an unreadable relationship reads as "not a friend".
func (r *Responder) Decide(ctx context.Context, msg Incoming) (Verdict, string) {
	if msg.Optimistic {
		return Suppress, "optimistic local echo"
	}

	ch, err := r.channels.Channel(ctx, msg.ChannelID)
	if err != nil {
		r.logger.DebugContext(ctx, "Channel lookup failed", "channel_id", msg.ChannelID, "error", err)
		return Suppress, "channel lookup failed"
	}
	if ch.Kind != ChannelDM {
		return Suppress, "not a one-to-one DM channel"
	}

	if me, err := r.identity.CurrentUserID(ctx); err == nil && me == msg.AuthorID {
		return Suppress, "own message"
	}

	if msg.AuthorBot {
		return Suppress, "author is a bot"
	}

	if friend, err := r.relationships.IsFriend(ctx, msg.AuthorID); err == nil && friend {
		return Suppress, "author is a friend"
	}

	if !r.cfg.TestMode {
		if r.suppression.Contains(msg.AuthorID) {
			return Suppress, "already replied"
		}

		member, err := r.memberships.IsMember(ctx, r.cfg.GuildID, msg.AuthorID)
		if err != nil {
			r.logger.DebugContext(ctx, "Membership lookup failed", "user_id", msg.AuthorID, "error", err)
			return Suppress, "membership lookup failed"
		}
		if !member {
			return Suppress, "not a member of the target guild"
		}

		if r.prober.HasHistory(ctx, msg.ChannelID, msg.MessageID) {
			return Suppress, "channel already has history"
		}
	}

	return Allow, ""
}
