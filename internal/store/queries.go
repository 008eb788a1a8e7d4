package store

// SQL query constants referenced by PostgresStore methods.

const (
	queryGetItem = `
		SELECT pk, sk, attrs, expires_at, updated_at
		FROM items
		WHERE pk = $1 AND sk = $2`

	queryPutItem = `
		INSERT INTO items (pk, sk, attrs, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (pk, sk) DO UPDATE SET
			attrs = EXCLUDED.attrs,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`

	queryGetItemForUpdate = `
		SELECT pk, sk, attrs, expires_at, updated_at
		FROM items
		WHERE pk = $1 AND sk = $2
		FOR UPDATE`

	queryUpdateItem = `
		UPDATE items
		SET attrs = $3, expires_at = $4, updated_at = now()
		WHERE pk = $1 AND sk = $2`

	queryByPrefix = `
		SELECT pk, sk, attrs, expires_at, updated_at
		FROM items
		WHERE pk = $1 AND sk LIKE $2 || '%'
		ORDER BY sk
		LIMIT $3 OFFSET $4`

	queryScan = `
		SELECT pk, sk, attrs, expires_at, updated_at
		FROM items
		ORDER BY pk, sk
		LIMIT $1 OFFSET $2`

	// The increment happens inside a single statement so concurrent
	// callers never lose updates.
	queryAtomicIncrement = `
		INSERT INTO items (pk, sk, attrs, expires_at, updated_at)
		VALUES ($1, $2, jsonb_build_object($3::text, $4::bigint), $5, now())
		ON CONFLICT (pk, sk) DO UPDATE SET
			attrs = jsonb_set(
				COALESCE(items.attrs, '{}'::jsonb),
				ARRAY[$3::text],
				to_jsonb(COALESCE((items.attrs ->> $3)::bigint, 0) + $4::bigint)
			),
			expires_at = COALESCE(EXCLUDED.expires_at, items.expires_at),
			updated_at = now()
		RETURNING (attrs ->> $3)::bigint`
)
