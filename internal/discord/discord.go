// Package discord adapts the Discord gateway and REST API (bwmarrin/discordgo)
// to the collaborator interfaces consumed by the responder engine.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/dmgreet/dmgreet/internal/responder"
)

const (
	// stateMessageCount is how many messages per channel the gateway state
	// keeps cached.
	stateMessageCount = 200

	// backfillLimit bounds the REST history fetch used to populate the
	// cache for channels the state has not seen yet.
	backfillLimit = 50

	relationshipTypeFriend = 1
)

// Client wraps a discordgo session and implements the responder ports:
// channel directory, identity, relationship and membership lookups, the
// per-channel message cache, outbound sends, and conversation close.
type Client struct {
	session *discordgo.Session
	logger  *slog.Logger

	mu       sync.Mutex
	backfill map[string][]responder.CachedMessage
	friends  map[string]bool
}

// NewClient creates a Discord client for the given token. The session is not
// opened until Run is called.
func NewClient(token string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers
	session.State.MaxMessageCount = stateMessageCount

	return &Client{
		session:  session,
		logger:   logger.With("component", "discord"),
		backfill: make(map[string][]responder.CachedMessage),
	}, nil
}

// OnMessage registers handle for every inbound message event. Each event is
// handled on its own goroutine; overlapping invocations are expected and
// tolerated by the responder.
func (c *Client) OnMessage(handle func(ctx context.Context, msg responder.Incoming)) {
	c.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		msg := responder.Incoming{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			AuthorID:  m.Author.ID,
			AuthorBot: m.Author.Bot,
			// The gateway only delivers server-confirmed messages.
			Optimistic: false,
		}
		go handle(context.Background(), msg)
	})
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	c.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		c.logger.Info("Discord gateway ready", "user_id", r.User.ID, "username", r.User.Username)
	})

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	c.logger.Info("Discord gateway connected")

	<-ctx.Done()

	c.logger.Info("Closing Discord gateway...")
	if err := c.session.Close(); err != nil {
		c.logger.Error("Error closing discord gateway", "error", err)
	}
	return nil
}

// Channel implements responder.ChannelDirectory, preferring gateway state
// over REST.
func (c *Client) Channel(ctx context.Context, channelID string) (responder.Channel, error) {
	ch, err := c.session.State.Channel(channelID)
	if err != nil {
		ch, err = c.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return responder.Channel{}, fmt.Errorf("failed to look up channel %s: %w", channelID, err)
		}
	}
	return responder.Channel{ID: ch.ID, Kind: channelKind(ch.Type)}, nil
}

func channelKind(t discordgo.ChannelType) responder.ChannelKind {
	switch t {
	case discordgo.ChannelTypeDM:
		return responder.ChannelDM
	case discordgo.ChannelTypeGroupDM:
		return responder.ChannelGroupDM
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildCategory, discordgo.ChannelTypeGuildNews:
		return responder.ChannelGuild
	default:
		return responder.ChannelUnknown
	}
}

// CurrentUserID implements responder.Identity.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	if c.session.State.User != nil {
		return c.session.State.User.ID, nil
	}
	u, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to look up current user: %w", err)
	}
	return u.ID, nil
}

// IsFriend implements responder.Relationships. The relationship list is
// fetched once and cached; the endpoint is unavailable to bot tokens, in
// which case every lookup errors and the caller treats the author as not a
// friend.
func (c *Client) IsFriend(ctx context.Context, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.friends == nil {
		rels, err := c.session.RelationshipsGet()
		if err != nil {
			c.logger.DebugContext(ctx, "Relationship lookup unavailable", "error", err)
			return false, fmt.Errorf("failed to fetch relationships: %w", err)
		}
		friends := make(map[string]bool, len(rels))
		for _, rel := range rels {
			if rel.Type == relationshipTypeFriend && rel.User != nil {
				friends[rel.User.ID] = true
			}
		}
		c.friends = friends
	}

	return c.friends[userID], nil
}

// IsMember implements responder.Memberships. A 404 from the member endpoint
// means "not a member" rather than an error.
func (c *Client) IsMember(ctx context.Context, guildID, userID string) (bool, error) {
	if guildID == "" {
		return false, nil
	}

	if member, err := c.session.State.Member(guildID, userID); err == nil && member != nil {
		return true, nil
	}

	_, err := c.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil &&
			restErr.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up guild member: %w", err)
	}
	return true, nil
}

// Lookup implements responder.MessageCache. The gateway state is consulted
// first; channels it has not cached fall back to the REST backfill captured
// by Ready.
func (c *Client) Lookup(_ context.Context, channelID string) (responder.MessageSource, bool) {
	if ch, err := c.session.State.Channel(channelID); err == nil && len(ch.Messages) > 0 {
		msgs := make([]responder.CachedMessage, 0, len(ch.Messages))
		for _, m := range ch.Messages {
			msgs = append(msgs, responder.CachedMessage{ID: m.ID})
		}
		return messageList(msgs), true
	}

	c.mu.Lock()
	msgs, ok := c.backfill[channelID]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return messageList(msgs), true
}

// Ready implements responder.MessageCache. Readiness is driven by a REST
// history fetch; the returned channel closes once the fetch lands (or
// fails, leaving the cache unpopulated).
func (c *Client) Ready(channelID string) (<-chan struct{}, func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)

		msgs, err := c.session.ChannelMessages(channelID, backfillLimit, "", "", "")
		if err != nil {
			c.logger.Debug("History backfill failed", "channel_id", channelID, "error", err)
			return
		}

		cached := make([]responder.CachedMessage, 0, len(msgs))
		for _, m := range msgs {
			cached = append(cached, responder.CachedMessage{ID: m.ID})
		}

		c.mu.Lock()
		c.backfill[channelID] = cached
		c.mu.Unlock()
	}()

	// The fetch goroutine finishes on its own; nothing to release.
	return done, func() {}
}

type messageList []responder.CachedMessage

func (l messageList) Messages() []responder.CachedMessage { return l }

// Send implements responder.Sender.
func (c *Client) Send(ctx context.Context, channelID, content string, opts responder.SendOptions) error {
	send := &discordgo.MessageSend{Content: content}
	if opts.SuppressMentions {
		// Empty allowed-mentions: no user or role pings, no reply framing.
		send.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}

	if _, err := c.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return nil
}

// Close implements responder.Closer. Deleting a DM channel closes the
// conversation for the current user.
func (c *Client) Close(ctx context.Context, channelID string) error {
	if _, err := c.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to close channel %s: %w", channelID, err)
	}
	return nil
}
