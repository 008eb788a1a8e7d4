package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation. It backs unit tests
// and local development without a database. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[Key]Item
	nowFunc func() time.Time
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryNowFunc overrides the time function for testing.
func WithMemoryNowFunc(f func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.nowFunc = f
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items:   make(map[Key]Item),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a single item, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, ErrNotFound)
	}
	cp := cloneItem(it)
	return &cp, nil
}

// Put unconditionally upserts an item.
func (s *MemoryStore) Put(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.UpdatedAt = s.nowFunc()
	s.items[item.Key()] = cloneItem(item)
	return nil
}

// ConditionalUpdate applies mutate to an existing item and writes it back.
func (s *MemoryStore) ConditionalUpdate(
	_ context.Context,
	key Key,
	mutate func(*Item) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", key.PK, key.SK, ErrConditionFailed)
	}

	cp := cloneItem(it)
	if err := mutate(&cp); err != nil {
		return err
	}

	cp.PK = key.PK
	cp.SK = key.SK
	cp.UpdatedAt = s.nowFunc()
	s.items[key] = cp
	return nil
}

// QueryByPrefix returns items under pk whose sort key starts with skPrefix.
func (s *MemoryStore) QueryByPrefix(
	_ context.Context,
	pk, skPrefix string,
	limit int,
	cursor string,
) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Item
	for k, it := range s.items {
		if k.PK == pk && strings.HasPrefix(k.SK, skPrefix) {
			matched = append(matched, cloneItem(it))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SK < matched[j].SK
	})

	return paginate(matched, limit, cursor)
}

// ScanWithFilter pages over all items matching the predicate.
func (s *MemoryStore) ScanWithFilter(
	_ context.Context,
	filter func(*Item) bool,
	limit int,
	cursor string,
) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Item
	for _, it := range s.items {
		cp := cloneItem(it)
		if filter == nil || filter(&cp) {
			matched = append(matched, cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PK != matched[j].PK {
			return matched[i].PK < matched[j].PK
		}
		return matched[i].SK < matched[j].SK
	})

	return paginate(matched, limit, cursor)
}

// BatchWrite upserts up to MaxBatchSize items. The in-memory store never
// reports unprocessed items.
func (s *MemoryStore) BatchWrite(_ context.Context, items []Item) ([]Item, error) {
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("batch write of %d items: %w", len(items), ErrBatchTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	for _, it := range items {
		it.UpdatedAt = now
		s.items[it.Key()] = cloneItem(it)
	}
	return nil, nil
}

// AtomicIncrement adds amount to a numeric attribute, creating the item
// when absent, and returns the new value.
func (s *MemoryStore) AtomicIncrement(
	_ context.Context,
	key Key,
	field string,
	amount int64,
	ttl time.Duration,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()

	it, ok := s.items[key]
	if !ok {
		it = Item{PK: key.PK, SK: key.SK, Attributes: map[string]any{}}
	}
	if it.Attributes == nil {
		it.Attributes = map[string]any{}
	}

	var current int64
	switch v := it.Attributes[field].(type) {
	case int64:
		current = v
	case float64:
		current = int64(v)
	case int:
		current = int64(v)
	}

	next := current + amount
	it.Attributes[field] = next
	it.UpdatedAt = now
	if ttl > 0 {
		exp := now.Add(ttl)
		it.ExpiresAt = &exp
	}
	s.items[key] = cloneItem(it)

	return next, nil
}

// Migrate is a no-op for the in-memory store.
func (s *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

// Ping is a no-op for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len returns the number of stored items. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func cloneItem(it Item) Item {
	cp := it
	cp.Attributes = maps.Clone(it.Attributes)
	if it.ExpiresAt != nil {
		exp := *it.ExpiresAt
		cp.ExpiresAt = &exp
	}
	return cp
}

func paginate(items []Item, limit int, cursor string) (*Page, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid cursor %q", cursor)
		}
		offset = n
	}

	if offset >= len(items) {
		return &Page{}, nil
	}

	if limit <= 0 {
		limit = len(items) - offset
	}

	end := offset + limit
	if end > len(items) {
		end = len(items)
	}

	page := &Page{Items: items[offset:end]}
	if end < len(items) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}
