// Package responder implements the auto-reply engine: the predicate chain
// deciding whether an incoming direct message gets the configured replies,
// the one-reply-per-user suppression state with durable persistence, and the
// history probe tolerating an eventually-populated message cache.
//
// Everything the engine needs from the host chat client is consumed through
// the small interfaces in this file, so tests (and alternative hosts) can
// substitute fakes.
package responder

import "context"

// ChannelKind discriminates conversation types. Only ChannelDM is eligible
// for auto-replies.
type ChannelKind int

const (
	ChannelUnknown ChannelKind = iota
	ChannelDM
	ChannelGroupDM
	ChannelGuild
)

// Channel is the descriptor the engine needs about a conversation.
type Channel struct {
	ID   string
	Kind ChannelKind
}

// Incoming is one inbound message event. It exists only for the duration of
// a single handler invocation and is never persisted.
type Incoming struct {
	MessageID string
	ChannelID string
	AuthorID  string
	AuthorBot bool

	// Optimistic marks a locally-originated echo not yet confirmed by the
	// server. Such events never trigger replies.
	Optimistic bool
}

// ChannelDirectory looks up channel descriptors by id.
type ChannelDirectory interface {
	Channel(ctx context.Context, channelID string) (Channel, error)
}

// Identity reports the current user.
type Identity interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Relationships answers whether a user is a friend/known contact of the
// current user.
type Relationships interface {
	IsFriend(ctx context.Context, userID string) (bool, error)
}

// Memberships answers whether a user is a member of a guild.
type Memberships interface {
	IsMember(ctx context.Context, guildID, userID string) (bool, error)
}

// CachedMessage is the minimal view of a cached message the history probe
// needs.
type CachedMessage struct {
	ID string
}

// A MessageSource is the populated cache content for one channel. It must
// implement at least one of MessageLister, MessageCounter, or MessageRanger;
// the probe unifies the three shapes behind a single "does any message other
// than X exist" question.
type MessageSource any

// MessageLister exposes cached messages as a slice.
type MessageLister interface {
	Messages() []CachedMessage
}

// MessageCounter exposes only the number of cached messages.
type MessageCounter interface {
	Count() int
}

// MessageRanger exposes cached messages through an enumeration callback.
// Enumeration stops when the callback returns false.
type MessageRanger interface {
	Range(func(CachedMessage) bool)
}

// MessageCache is the per-channel message cache of the host client. The
// cache is filled asynchronously relative to message events, so a channel
// may report unpopulated for a short window after its first message arrives.
type MessageCache interface {
	// Lookup returns the cache content for the channel and whether the
	// cache considers itself populated for that channel.
	Lookup(ctx context.Context, channelID string) (MessageSource, bool)

	// Ready returns a channel that is closed once the cache for channelID
	// becomes populated, plus a release function the caller must invoke
	// when it stops waiting.
	Ready(channelID string) (<-chan struct{}, func())
}

// SendOptions qualify an outbound message.
type SendOptions struct {
	// SuppressMentions disables user/role pings and reply framing.
	SuppressMentions bool
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, channelID, content string, opts SendOptions) error
}

// Closer closes/archives a conversation.
type Closer interface {
	Close(ctx context.Context, channelID string) error
}

// KeyValue is the durable persistence collaborator for responder state.
// database.Store satisfies it.
type KeyValue interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}
