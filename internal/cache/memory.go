package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

type MemoryOptions struct {
	// MaxEntries bounds the store; the least recently used entry is evicted first.
	// Zero means 10000.
	MaxEntries int
	// Now is the clock used for expiry. Defaults to time.Now.
	Now func() time.Time
}

// MemoryStore is an in-process Store with per-entry expiry and LRU eviction.
// It is always connected unless SetConnected(false) is called.
type MemoryStore struct {
	mu         sync.Mutex
	lru        *list.List
	items      map[string]*list.Element
	maxEntries int
	now        func() time.Time

	connMu    sync.RWMutex
	connected bool
}

func NewMemoryStore(opts MemoryOptions) *MemoryStore {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 10000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryStore{
		lru:        list.New(),
		items:      make(map[string]*list.Element),
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
		connected:  true,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if !m.Connected() {
		return "", false, ErrNotConnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.items[key]
	if !ok {
		return "", false, nil
	}
	e := el.Value.(*memoryEntry)
	if !m.now().Before(e.expiresAt) {
		m.lru.Remove(el)
		delete(m.items, key)
		return "", false, nil
	}
	m.lru.MoveToFront(el)
	return e.value, true, nil
}

func (m *MemoryStore) SetEx(_ context.Context, key string, value string, ttl time.Duration) error {
	if !m.Connected() {
		return ErrNotConnected
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt := m.now().Add(ttl)
	if el, ok := m.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value = value
		e.expiresAt = expiresAt
		m.lru.MoveToFront(el)
		return nil
	}
	m.items[key] = m.lru.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	for m.lru.Len() > m.maxEntries {
		back := m.lru.Back()
		if back == nil {
			break
		}
		m.lru.Remove(back)
		delete(m.items, back.Value.(*memoryEntry).key)
	}
	return nil
}

func (m *MemoryStore) Connected() bool {
	m.connMu.RLock()
	defer m.connMu.RUnlock()
	return m.connected
}

// SetConnected simulates the backend going away or coming back.
func (m *MemoryStore) SetConnected(v bool) {
	m.connMu.Lock()
	m.connected = v
	m.connMu.Unlock()
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

func (m *MemoryStore) Close() error { return nil }
