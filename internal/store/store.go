// Package store defines the persistence abstraction for podcast-mirror.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running
// database.
//
// The model is a schemaless key/value table: each Item is addressed by a
// partition key and a sort key and carries a JSON attribute document.
// Expiry is enforced by readers comparing ExpiresAt against the clock;
// nothing proactively deletes expired rows.
package store

import (
	"context"
	"errors"
	"time"
)

// MaxBatchSize is the largest number of items a single BatchWrite accepts.
const MaxBatchSize = 25

// Store error definitions.
var (
	// ErrNotFound is returned when the addressed item does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrConditionFailed is returned by ConditionalUpdate when the item
	// does not already exist.
	ErrConditionFailed = errors.New("condition failed: item does not exist")

	// ErrBatchTooLarge is returned when BatchWrite receives more than
	// MaxBatchSize items.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")

	// ErrWriteFailure is returned when a batch write could not be fully
	// applied after retries were exhausted.
	ErrWriteFailure = errors.New("batch write incomplete")
)

// Key addresses a single item.
type Key struct {
	PK string
	SK string
}

// Item is a schemaless row. Attributes holds the JSON document;
// a nil ExpiresAt means the item never expires.
type Item struct {
	PK         string
	SK         string
	Attributes map[string]any
	ExpiresAt  *time.Time
	UpdatedAt  time.Time
}

// Key returns the item's address.
func (it *Item) Key() Key {
	return Key{PK: it.PK, SK: it.SK}
}

// Expired reports whether the item's TTL has passed at the given instant.
func (it *Item) Expired(now time.Time) bool {
	return it.ExpiresAt != nil && !now.Before(*it.ExpiresAt)
}

// Page holds one page of query results. NextCursor is opaque; an empty
// cursor means the result set is exhausted.
type Page struct {
	Items      []Item
	NextCursor string
}

// Store defines all data access operations for podcast-mirror.
type Store interface {
	// Get retrieves a single item, or ErrNotFound.
	Get(ctx context.Context, key Key) (*Item, error)

	// Put unconditionally upserts an item.
	Put(ctx context.Context, item Item) error

	// ConditionalUpdate applies mutate to an existing item and writes it
	// back atomically. Returns ErrConditionFailed if the item does not
	// exist, so a write racing a delete fails softly instead of
	// resurrecting the row.
	ConditionalUpdate(ctx context.Context, key Key, mutate func(*Item) error) error

	// QueryByPrefix returns items under pk whose sort key starts with
	// skPrefix, ordered by sort key, in pages of at most limit.
	QueryByPrefix(ctx context.Context, pk, skPrefix string, limit int, cursor string) (*Page, error)

	// ScanWithFilter pages over all items, returning those matching the
	// predicate. Expensive; used only for low-cardinality scans.
	ScanWithFilter(ctx context.Context, filter func(*Item) bool, limit int, cursor string) (*Page, error)

	// BatchWrite upserts up to MaxBatchSize items and returns any it
	// could not apply. Callers must requeue unprocessed items themselves.
	BatchWrite(ctx context.Context, items []Item) ([]Item, error)

	// AtomicIncrement adds amount to a numeric attribute of the item at
	// key, creating the item when absent, and returns the new value.
	// The increment is atomic at the store level; it never degrades to
	// read-modify-write. A non-zero ttl (re)stamps the item's expiry.
	AtomicIncrement(ctx context.Context, key Key, field string, amount int64, ttl time.Duration) (int64, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
