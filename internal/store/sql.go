package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/domain"
)

// SQL stores each chat as one JSON document row in the users table.
// Queries are written with '?' placeholders and rebound per driver.
type SQL struct {
	db     *sqlx.DB
	upsert string
	ownDB  bool
}

type userRow struct {
	ChatID int64  `db:"chat_id"`
	Data   []byte `db:"data"`
}

const (
	qLoad    = `SELECT chat_id, data FROM users WHERE chat_id = ?`
	qLoadAll = `SELECT chat_id, data FROM users`
	qRemove  = `DELETE FROM users WHERE chat_id = ?`
)

func newSQL(db *sqlx.DB, upsert string, own bool) *SQL {
	return &SQL{db: db, upsert: db.Rebind(upsert), ownDB: own}
}

func (s *SQL) Load(ctx context.Context, chatID int64) (domain.UserData, bool, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(qLoad), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserData{}, false, nil
	}
	if err != nil {
		return domain.UserData{}, false, fmt.Errorf("load user %d: %w", chatID, err)
	}
	u, err := decode(row.ChatID, row.Data)
	if err != nil {
		return domain.UserData{}, false, err
	}
	return u, true, nil
}

func (s *SQL) Save(ctx context.Context, u domain.UserData) error {
	raw, err := encode(u)
	if err != nil {
		return err
	}
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, s.upsert, u.ChatID, string(raw), time.Now().UTC()); err != nil {
		return fmt.Errorf("save user %d: %w", u.ChatID, err)
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.ComponentStore, "store.save",
			slog.Int64("chat_id", u.ChatID),
			slog.Int("payload", len(raw)),
			slog.Duration("duration_ms", logger.Took(start)),
		)
	}
	return nil
}

func (s *SQL) LoadAll(ctx context.Context) (map[int64]domain.UserData, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, qLoadAll); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	out := make(map[int64]domain.UserData, len(rows))
	for _, r := range rows {
		u, err := decode(r.ChatID, r.Data)
		if err != nil {
			logger.Warn(ctx, logger.ComponentStore, "store.decode",
				slog.Int64("chat_id", r.ChatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		out[r.ChatID] = u
	}
	return out, nil
}

func (s *SQL) Remove(ctx context.Context, chatID int64) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(qRemove), chatID); err != nil {
		return fmt.Errorf("remove user %d: %w", chatID, err)
	}
	return nil
}

// Close closes the connection pool when the store opened it itself.
func (s *SQL) Close() error {
	if !s.ownDB {
		return nil
	}
	return s.db.Close()
}
