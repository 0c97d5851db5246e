package responder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dmgreet/dmgreet/internal/responder"
)

const suppressionKey = "responder.replied_users"

func TestSuppressionLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(*fakeKV)
		contains []string
		wantLen  int
	}{
		{
			name:    "no persisted state",
			setup:   func(*fakeKV) {},
			wantLen: 0,
		},
		{
			name: "valid state",
			setup: func(kv *fakeKV) {
				kv.values[suppressionKey] = `["a","b","c"]`
			},
			contains: []string{"a", "b", "c"},
			wantLen:  3,
		},
		{
			name: "blank ids are skipped",
			setup: func(kv *fakeKV) {
				kv.values[suppressionKey] = `["a",""]`
			},
			contains: []string{"a"},
			wantLen:  1,
		},
		{
			name: "corrupt payload starts empty",
			setup: func(kv *fakeKV) {
				kv.values[suppressionKey] = `{"not": "a list"`
			},
			wantLen: 0,
		},
		{
			name: "read failure starts empty",
			setup: func(kv *fakeKV) {
				kv.getErr = errors.New("disk gone")
			},
			wantLen: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			kv := newFakeKV()
			tc.setup(kv)

			s := responder.NewSuppressionStore(kv, discard)
			s.Load(context.Background())

			if got := s.Len(); got != tc.wantLen {
				t.Errorf("Len() = %d, want %d", got, tc.wantLen)
			}
			for _, id := range tc.contains {
				if !s.Contains(id) {
					t.Errorf("Contains(%q) = false, want true", id)
				}
			}
		})
	}
}

func TestSuppressionAddPersist(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := responder.NewSuppressionStore(kv, discard)

	s.Add("b")
	s.Add("a")
	s.Add("b") // idempotent

	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	if err := s.Persist(context.Background()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	// Stable, sorted payload.
	got, ok := kv.get(suppressionKey)
	if !ok {
		t.Fatal("nothing persisted")
	}
	if want := `["a","b"]`; got != want {
		t.Errorf("persisted = %s, want %s", got, want)
	}
}

func TestSuppressionPersistFailure(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	kv.setErr = errors.New("disk full")

	s := responder.NewSuppressionStore(kv, discard)
	s.Add("a")

	if err := s.Persist(context.Background()); err == nil {
		t.Error("Persist() error = nil, want error for scheduled retry to observe")
	}
	if !s.Contains("a") {
		t.Error("in-memory state lost on persist failure")
	}
}

func TestSuppressionClearKeepsPersistedCopy(t *testing.T) {
	t.Parallel()

	kv := newFakeKV()
	s := responder.NewSuppressionStore(kv, discard)

	s.Add("a")
	if err := s.Persist(context.Background()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	s.Clear()

	if s.Contains("a") {
		t.Error("Contains(a) = true after Clear")
	}
	if _, ok := kv.get(suppressionKey); !ok {
		t.Error("Clear erased the persisted copy")
	}
}
