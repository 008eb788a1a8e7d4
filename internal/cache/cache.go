// Package cache implements a read-through cache over the store. Entries
// are keyed by a stable hash of the operation name and its arguments,
// so identical calls share one entry regardless of argument ordering.
//
// There is no request coalescing: concurrent misses for the same key
// each fetch upstream and the last write wins. Entries are immutable
// snapshots; staleness is bounded by the TTL alone.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/donaldgifford/podcast-mirror/internal/metrics"
	"github.com/donaldgifford/podcast-mirror/internal/store"
)

// partition is the partition key shared by all cache entries.
const partition = "CACHE"

// attrPayload holds the cached response as a JSON document.
const attrPayload = "payload"

// ReadThrough caches fetch results in the store with per-entry TTLs.
type ReadThrough struct {
	store   store.Store
	logger  *log.Logger
	nowFunc func() time.Time
}

// Option configures a ReadThrough.
type Option func(*ReadThrough)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *ReadThrough) {
		c.logger = l
	}
}

// WithNowFunc overrides the clock. Tests only.
func WithNowFunc(now func() time.Time) Option {
	return func(c *ReadThrough) {
		c.nowFunc = now
	}
}

// New creates a ReadThrough backed by the given store.
func New(s store.Store, opts ...Option) *ReadThrough {
	c := &ReadThrough{
		store:   s,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EntryKey computes the store key for an operation and its arguments.
// Arguments are canonicalized through JSON (map keys sort, struct fields
// keep declaration order), so equal calls always map to the same entry.
func EntryKey(op string, args any) (store.Key, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return store.Key{}, fmt.Errorf("encoding cache key args: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(op))
	h.Write([]byte{0})
	h.Write(encoded)

	return store.Key{PK: partition, SK: hex.EncodeToString(h.Sum(nil))}, nil
}

// GetOrFetch returns the cached payload for (op, args) when an unexpired
// entry exists, otherwise calls fetch, stores the result with the given
// TTL, and returns it. A failed store write after a successful fetch is
// logged and the fresh value returned; the cache never turns a good
// fetch into an error.
func (c *ReadThrough) GetOrFetch(
	ctx context.Context,
	op string,
	args any,
	ttl time.Duration,
	fetch func(context.Context) (any, error),
) (json.RawMessage, error) {
	key, err := EntryKey(op, args)
	if err != nil {
		return nil, err
	}

	now := c.nowFunc()

	item, err := c.store.Get(ctx, key)
	if err == nil && !item.Expired(now) {
		if payload, ok := item.Attributes[attrPayload].(string); ok {
			metrics.CacheHitsTotal.WithLabelValues(op).Inc()
			return json.RawMessage(payload), nil
		}
	}

	metrics.CacheMissesTotal.WithLabelValues(op).Inc()

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding cache payload for %s: %w", op, err)
	}

	expires := now.Add(ttl)
	writeErr := c.store.Put(ctx, store.Item{
		PK: key.PK,
		SK: key.SK,
		Attributes: map[string]any{
			"operation": op,
			attrPayload: string(payload),
		},
		ExpiresAt: &expires,
		UpdatedAt: now,
	})
	if writeErr != nil && c.logger != nil {
		c.logger.Warn("cache write failed", "operation", op, "error", writeErr)
	}

	return payload, nil
}

// GetOrFetch is the typed wrapper over ReadThrough.GetOrFetch. The
// cached JSON document is decoded into T on hits; on misses fetch runs
// and its result is returned directly after being stored.
func GetOrFetch[T any](
	ctx context.Context,
	c *ReadThrough,
	op string,
	args any,
	ttl time.Duration,
	fetch func(context.Context) (T, error),
) (T, error) {
	var zero T

	payload, err := c.GetOrFetch(ctx, op, args, ttl, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return zero, fmt.Errorf("decoding cached %s payload: %w", op, err)
	}
	return out, nil
}
