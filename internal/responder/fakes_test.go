package responder_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmgreet/dmgreet/internal/config"
	"github.com/dmgreet/dmgreet/internal/responder"
)

// discard is a logger for tests.
var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeChannels struct {
	channels map[string]responder.Channel
	err      error
}

func (f *fakeChannels) Channel(_ context.Context, channelID string) (responder.Channel, error) {
	if f.err != nil {
		return responder.Channel{}, f.err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return responder.Channel{}, errors.New("unknown channel")
	}
	return ch, nil
}

type fakeIdentity struct {
	id  string
	err error
}

func (f *fakeIdentity) CurrentUserID(context.Context) (string, error) {
	return f.id, f.err
}

type fakeRelationships struct {
	friends map[string]bool
	err     error
}

func (f *fakeRelationships) IsFriend(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.friends[userID], nil
}

type fakeMemberships struct {
	members map[string]bool // key: guildID + "/" + userID
	err     error
}

func (f *fakeMemberships) IsMember(_ context.Context, guildID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[guildID+"/"+userID], nil
}

// fakeCache simulates the eventually-populated message cache. When
// populateOnReady is set, the cache reports unpopulated until Ready is
// consulted, at which point it flips and signals readiness.
type fakeCache struct {
	mu              sync.Mutex
	source          responder.MessageSource
	populated       bool
	populateOnReady bool
	readyCalls      int
	releaseCalls    int
}

func (f *fakeCache) Lookup(context.Context, string) (responder.MessageSource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.populated {
		return nil, false
	}
	return f.source, true
}

func (f *fakeCache) Ready(string) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyCalls++

	ch := make(chan struct{})
	if f.populateOnReady {
		f.populated = true
		close(ch)
	}
	return ch, func() {
		f.mu.Lock()
		f.releaseCalls++
		f.mu.Unlock()
	}
}

type sentMessage struct {
	channelID string
	content   string
	opts      responder.SendOptions
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(_ context.Context, channelID, content string, opts responder.SendOptions) error {
	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{channelID, content, opts})
	f.mu.Unlock()
	return f.err
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeCloser struct {
	mu     sync.Mutex
	closed []string
}

func (f *fakeCloser) Close(_ context.Context, channelID string) error {
	f.mu.Lock()
	f.closed = append(f.closed, channelID)
	f.mu.Unlock()
	return nil
}

func (f *fakeCloser) channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: make(map[string]string)}
}

func (f *fakeKV) GetValue(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) SetValue(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeKV) get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

// harness bundles a responder with all its fakes, preconfigured for the
// happy path: a DM channel "C1" from member "u1" of guild "S1" with no
// history and two configured replies.
type harness struct {
	responder *responder.Responder

	cfg           *config.ResponderConfig
	channels      *fakeChannels
	identity      *fakeIdentity
	relationships *fakeRelationships
	memberships   *fakeMemberships
	cache         *fakeCache
	sender        *fakeSender
	closer        *fakeCloser
	kv            *fakeKV
	suppression   *responder.SuppressionStore
}

func newHarness(mutate func(*harness)) *harness {
	h := &harness{
		cfg: &config.ResponderConfig{
			GuildID:       "S1",
			ReplyMessage1: "Hi",
			ReplyMessage2: "",
			ReplyMessage3: "Bye",
			HistoryWait:   20 * time.Millisecond,
			FlushDelay:    time.Millisecond,
		},
		channels: &fakeChannels{channels: map[string]responder.Channel{
			"C1": {ID: "C1", Kind: responder.ChannelDM},
		}},
		identity:      &fakeIdentity{id: "me"},
		relationships: &fakeRelationships{friends: map[string]bool{}},
		memberships:   &fakeMemberships{members: map[string]bool{"S1/u1": true}},
		cache: &fakeCache{
			source:    listSource{{ID: "m1"}},
			populated: true,
		},
		sender: &fakeSender{},
		closer: &fakeCloser{},
		kv:     newFakeKV(),
	}
	h.suppression = responder.NewSuppressionStore(h.kv, discard)

	if mutate != nil {
		mutate(h)
	}

	h.responder = responder.New(responder.Deps{
		Logger:        discard,
		Config:        h.cfg,
		Channels:      h.channels,
		Identity:      h.identity,
		Relationships: h.relationships,
		Memberships:   h.memberships,
		Cache:         h.cache,
		Sender:        h.sender,
		Closer:        h.closer,
		Suppression:   h.suppression,
	})
	return h
}

func incomingFromU1() responder.Incoming {
	return responder.Incoming{
		MessageID: "m1",
		ChannelID: "C1",
		AuthorID:  "u1",
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// Cache source shapes used across tests.

type listSource []responder.CachedMessage

func (l listSource) Messages() []responder.CachedMessage { return l }

type countSource int

func (c countSource) Count() int { return int(c) }

type rangeSource []responder.CachedMessage

func (r rangeSource) Range(fn func(responder.CachedMessage) bool) {
	for _, m := range r {
		if !fn(m) {
			return
		}
	}
}

type opaqueSource struct{}
