package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled
// PostgreSQL). Items live in a single table keyed by (pk, sk) with a
// JSONB attribute document.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Get retrieves a single item, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, key Key) (*Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, queryGetItem, key.PK, key.SK))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", key.PK, key.SK, err)
	}
	return it, nil
}

// Put unconditionally upserts an item.
func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	attrs, err := marshalAttrs(item.Attributes)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, queryPutItem,
		item.PK, item.SK, attrs, item.ExpiresAt,
	); err != nil {
		return fmt.Errorf("put %s/%s: %w", item.PK, item.SK, err)
	}
	return nil
}

// ConditionalUpdate applies mutate to an existing item inside a
// transaction with a row lock. Returns ErrConditionFailed when the item
// does not exist.
func (s *PostgresStore) ConditionalUpdate(
	ctx context.Context,
	key Key,
	mutate func(*Item) error,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() //nolint:errcheck // rollback after commit is a no-op

	it, err := scanItem(tx.QueryRow(ctx, queryGetItemForUpdate, key.PK, key.SK))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update %s/%s: %w", key.PK, key.SK, ErrConditionFailed)
		}
		return fmt.Errorf("update %s/%s: %w", key.PK, key.SK, err)
	}

	if err := mutate(it); err != nil {
		return err
	}

	attrs, err := marshalAttrs(it.Attributes)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, queryUpdateItem,
		key.PK, key.SK, attrs, it.ExpiresAt,
	); err != nil {
		return fmt.Errorf("update %s/%s: %w", key.PK, key.SK, err)
	}

	return tx.Commit(ctx)
}

// QueryByPrefix returns items under pk whose sort key starts with skPrefix.
func (s *PostgresStore) QueryByPrefix(
	ctx context.Context,
	pk, skPrefix string,
	limit int,
	cursor string,
) (*Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, queryByPrefix, pk, skPrefix, limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("querying prefix %s/%s: %w", pk, skPrefix, err)
	}
	defer rows.Close()

	return collectPage(rows, limit, offset, nil)
}

// ScanWithFilter pages over the whole table, applying the predicate to
// each row. A page may contain fewer than limit items (or none) while
// NextCursor is still set; callers must loop until the cursor is empty.
func (s *PostgresStore) ScanWithFilter(
	ctx context.Context,
	filter func(*Item) bool,
	limit int,
	cursor string,
) (*Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, queryScan, limit+1, offset)
	if err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}
	defer rows.Close()

	return collectPage(rows, limit, offset, filter)
}

// BatchWrite upserts up to MaxBatchSize items in a single transaction.
// Postgres applies the batch all-or-nothing, so on success no items are
// reported unprocessed.
func (s *PostgresStore) BatchWrite(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("batch write of %d items: %w", len(items), ErrBatchTooLarge)
	}
	if len(items) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for i := range items {
		attrs, err := marshalAttrs(items[i].Attributes)
		if err != nil {
			return nil, err
		}
		batch.Queue(queryPutItem, items[i].PK, items[i].SK, attrs, items[i].ExpiresAt)
	}

	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("batch write: %w", err)
	}
	return nil, nil
}

// AtomicIncrement adds amount to a numeric attribute in a single
// statement, creating the item when absent, and returns the new value.
func (s *PostgresStore) AtomicIncrement(
	ctx context.Context,
	key Key,
	field string,
	amount int64,
	ttl time.Duration,
) (int64, error) {
	var expiresAt *time.Time
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		expiresAt = &exp
	}

	var newValue int64
	err := s.pool.QueryRow(ctx, queryAtomicIncrement,
		key.PK, key.SK, field, amount, expiresAt,
	).Scan(&newValue)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s/%s.%s: %w", key.PK, key.SK, field, err)
	}
	return newValue, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		it    Item
		attrs []byte
	)
	if err := row.Scan(&it.PK, &it.SK, &attrs, &it.ExpiresAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &it.Attributes); err != nil {
			return nil, fmt.Errorf("decoding attributes: %w", err)
		}
	}
	return &it, nil
}

func collectPage(rows pgx.Rows, limit, offset int, filter func(*Item) bool) (*Page, error) {
	page := &Page{}
	scanned := 0

	for rows.Next() {
		scanned++
		if scanned > limit {
			// One extra row was fetched only to detect another page.
			page.NextCursor = strconv.Itoa(offset + limit)
			break
		}

		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if filter == nil || filter(it) {
			page.Items = append(page.Items, *it)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return page, nil
}

func marshalAttrs(attrs map[string]any) ([]byte, error) {
	if attrs == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("encoding attributes: %w", err)
	}
	return data, nil
}

func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor %q", cursor)
	}
	return n, nil
}
