package store

import (
	"github.com/jmoiron/sqlx"
)

const upsertUser = `INSERT INTO users (chat_id, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT (chat_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`

// NewPostgres wraps an already connected and migrated Postgres pool.
// The pool stays owned by the caller.
func NewPostgres(db *sqlx.DB) *SQL {
	return newSQL(db, upsertUser, false)
}
