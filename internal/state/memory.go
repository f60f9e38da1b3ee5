package state

import (
	"context"
	"sync"

	"github.com/davidbz/cthai/internal/observability"
)

const subscriberBuffer = 16

// MemoryStore keeps state in process memory. It suits a single instance.
type MemoryStore struct {
	mu          sync.RWMutex
	sections    map[string]map[Section]Snapshot
	subscribers map[string]map[chan Change]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sections:    make(map[string]map[Section]Snapshot),
		subscribers: make(map[string]map[chan Change]struct{}),
	}
}

// Get returns the section, or its defaults when nothing was stored.
func (m *MemoryStore) Get(_ context.Context, userID string, section Section) (Snapshot, error) {
	m.mu.RLock()
	snap, ok := m.sections[userID][section]
	m.mu.RUnlock()

	if !ok {
		return Defaults(section)
	}
	return clone(snap), nil
}

// Update shallow-merges patch into the section.
func (m *MemoryStore) Update(ctx context.Context, userID string, section Section, patch Snapshot) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sections[userID][section]
	if !ok {
		var err error
		if current, err = Defaults(section); err != nil {
			return nil, err
		}
	}

	merged, err := Merge(section, current, patch)
	if err != nil {
		return nil, err
	}

	m.store(userID, section, merged)
	m.broadcast(ctx, userID, Change{Section: section, State: clone(merged)})
	return clone(merged), nil
}

// Reset restores the section's defaults.
func (m *MemoryStore) Reset(ctx context.Context, userID string, section Section) (Snapshot, error) {
	snap, err := Defaults(section)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.store(userID, section, snap)
	m.broadcast(ctx, userID, Change{Section: section, State: clone(snap)})
	return clone(snap), nil
}

// Subscribe streams the user's changes until ctx ends.
func (m *MemoryStore) Subscribe(ctx context.Context, userID string) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	m.mu.Lock()
	if m.subscribers[userID] == nil {
		m.subscribers[userID] = make(map[chan Change]struct{})
	}
	m.subscribers[userID][ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subscribers[userID], ch)
		if len(m.subscribers[userID]) == 0 {
			delete(m.subscribers, userID)
		}
		m.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// store must be called with mu held.
func (m *MemoryStore) store(userID string, section Section, snap Snapshot) {
	if m.sections[userID] == nil {
		m.sections[userID] = make(map[Section]Snapshot)
	}
	m.sections[userID][section] = snap
}

// broadcast must be called with mu held. A subscriber that is not keeping up
// misses the change; the next one carries the full section again.
func (m *MemoryStore) broadcast(ctx context.Context, userID string, change Change) {
	for ch := range m.subscribers[userID] {
		select {
		case ch <- change:
		default:
			observability.FromContext(ctx).Warn("dropping state change for slow subscriber",
				observability.String("section", string(change.Section)),
			)
		}
	}
}

func clone(snap Snapshot) Snapshot {
	out := make(Snapshot, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}
