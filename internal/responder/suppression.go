package responder

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
)

// suppressionKey is the fixed key the replied-user set is persisted under.
const suppressionKey = "responder.replied_users"

// SuppressionStore tracks the users who have already received an auto-reply,
// enforcing at-most-one-reply-per-user outside test mode. Membership only
// grows during a process lifetime; Clear empties the in-memory set at
// shutdown without touching the persisted copy.
//
// The mutex protects the map itself. The caller-level check-then-add window
// (Contains in the decision, Add after dispatch) is deliberately left open;
// two near-simultaneous first messages from the same user can both pass the
// check. The worst case is one duplicate reply.
type SuppressionStore struct {
	kv     KeyValue
	logger *slog.Logger

	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewSuppressionStore creates an empty store backed by the given key-value
// collaborator.
func NewSuppressionStore(kv KeyValue, logger *slog.Logger) *SuppressionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SuppressionStore{
		kv:     kv,
		logger: logger.With("component", "suppression"),
		seen:   make(map[string]struct{}),
	}
}

// Load populates the set from persisted state. Any failure (missing key,
// unreadable store, invalid payload) leaves the set empty and is logged,
// never surfaced.
func (s *SuppressionStore) Load(ctx context.Context) {
	raw, ok, err := s.kv.GetValue(ctx, suppressionKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load suppression state, starting empty", "error", err)
		return
	}
	if !ok {
		s.logger.DebugContext(ctx, "No persisted suppression state")
		return
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.WarnContext(ctx, "Corrupt suppression state, starting empty", "error", err)
		return
	}

	s.mu.Lock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.seen[id] = struct{}{}
	}
	loaded := len(s.seen)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Suppression state loaded", "users", loaded)
}

// Contains reports whether userID has already been replied to.
func (s *SuppressionStore) Contains(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[userID]
	return ok
}

// Add marks userID as replied to. Idempotent.
func (s *SuppressionStore) Add(userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	s.seen[userID] = struct{}{}
	s.mu.Unlock()
}

// Persist writes the current set to the key-value store. Best effort: the
// error is logged and also returned so scheduled retries can observe it.
func (s *SuppressionStore) Persist(ctx context.Context) error {
	payload, err := json.Marshal(s.snapshot())
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode suppression state", "error", err)
		return err
	}
	if err := s.kv.SetValue(ctx, suppressionKey, string(payload)); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist suppression state", "error", err)
		return err
	}
	return nil
}

// Clear empties the in-memory set. The persisted copy is left intact.
func (s *SuppressionStore) Clear() {
	s.mu.Lock()
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
}

// Len returns the number of suppressed users.
func (s *SuppressionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// snapshot returns the ids in stable order so repeated persists of the same
// set write identical payloads.
func (s *SuppressionStore) snapshot() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
