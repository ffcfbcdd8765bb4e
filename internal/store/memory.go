package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is the channel capacity given to each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Card states are keyed by hostname, with new states replacing previous
// values. Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber.
type MemoryStore struct {
	mu    sync.RWMutex
	cards map[string]CardState

	subscribers map[chan CardState]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards:       make(map[string]CardState),
		subscribers: make(map[chan CardState]struct{}),
	}
}

// Update stores a [CardState] and notifies all subscribers.
func (m *MemoryStore) Update(state CardState) {
	m.mu.Lock()
	m.cards[state.Hostname] = state
	m.mu.Unlock()

	m.notifySubscribers(state)
}

// GetAll returns a snapshot of all stored card states, ordered by Position.
func (m *MemoryStore) GetAll() []CardState {
	m.mu.RLock()
	states := make([]CardState, 0, len(m.cards))
	for _, state := range m.cards {
		states = append(states, state)
	}
	m.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if states[i].Position != states[j].Position {
			return states[i].Position < states[j].Position
		}
		return states[i].Hostname < states[j].Hostname
	})
	return states
}

// Get returns the stored state for hostname.
func (m *MemoryStore) Get(hostname string) (CardState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.cards[hostname]
	return state, ok
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan CardState {
	ch := make(chan CardState, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan CardState) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the state to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(state CardState) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- state:
		default:
			// subscriber is slow, drop the message
		}
	}
}
