package responder_test

import (
	"context"
	"testing"

	"github.com/dmgreet/dmgreet/internal/responder"
)

// TestHandleMessageEndToEnd runs the full flow for an eligible first-time
// sender: two replies in order, channel closed, sender suppressed and
// persisted.
func TestHandleMessageEndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(nil)
	h.responder.HandleMessage(context.Background(), incomingFromU1())

	sent := h.sender.messages()
	if len(sent) != 2 || sent[0].content != "Hi" || sent[1].content != "Bye" {
		t.Fatalf("sent = %v, want [Hi Bye]", sent)
	}
	if closed := h.closer.channels(); len(closed) != 1 || closed[0] != "C1" {
		t.Errorf("closed = %v, want [C1]", closed)
	}
	if !h.suppression.Contains("u1") {
		t.Error("sender not added to suppression set")
	}
	waitFor(t, func() bool {
		v, ok := h.kv.get(suppressionKey)
		return ok && v == `["u1"]`
	})
}

// TestHandleMessageAlreadySuppressed verifies a previously-replied sender
// gets nothing: no sends, no close.
func TestHandleMessageAlreadySuppressed(t *testing.T) {
	t.Parallel()

	h := newHarness(func(h *harness) {
		h.suppression.Add("u1")
	})
	h.responder.HandleMessage(context.Background(), incomingFromU1())

	if sent := h.sender.messages(); len(sent) != 0 {
		t.Errorf("sent %d messages to suppressed sender, want 0", len(sent))
	}
	if closed := h.closer.channels(); len(closed) != 0 {
		t.Errorf("closed %d channels for suppressed sender, want 0", len(closed))
	}
}

// TestHandleMessageSecondMessageSuppressed verifies the at-most-once flow
// across two consecutive messages from the same sender.
func TestHandleMessageSecondMessageSuppressed(t *testing.T) {
	t.Parallel()

	h := newHarness(nil)

	h.responder.HandleMessage(context.Background(), incomingFromU1())
	if sent := h.sender.messages(); len(sent) != 2 {
		t.Fatalf("first message: sent %d, want 2", len(sent))
	}

	second := incomingFromU1()
	second.MessageID = "m2"
	h.responder.HandleMessage(context.Background(), second)

	if sent := h.sender.messages(); len(sent) != 2 {
		t.Errorf("second message triggered %d extra sends, want 0", len(sent)-2)
	}
}

type panickyChannels struct{}

func (panickyChannels) Channel(context.Context, string) (responder.Channel, error) {
	panic("channel store corrupted")
}

// TestHandleMessageRecoversPanic verifies one bad collaborator cannot
// disable the handler.
func TestHandleMessageRecoversPanic(t *testing.T) {
	t.Parallel()

	h := newHarness(nil)
	r := responder.New(responder.Deps{
		Logger:        discard,
		Config:        h.cfg,
		Channels:      panickyChannels{},
		Identity:      h.identity,
		Relationships: h.relationships,
		Memberships:   h.memberships,
		Cache:         h.cache,
		Sender:        h.sender,
		Closer:        h.closer,
		Suppression:   h.suppression,
	})

	// Must not panic out of HandleMessage.
	r.HandleMessage(context.Background(), incomingFromU1())

	if sent := h.sender.messages(); len(sent) != 0 {
		t.Errorf("sent %d messages after panic, want 0", len(sent))
	}
}
