package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

type repoSQLite struct {
	db *sql.DB
}

func NewSQLiteRepo(sqlDB *sql.DB) Repository {
	return &repoSQLite{db: sqlDB}
}

func (r *repoSQLite) Increment(ctx context.Context, name string, baseline int64) (int64, error) {
	var value int64
	err := sqlitedb.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO sequence_counter (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET value = sequence_counter.value + 1, updated_at = excluded.updated_at
		RETURNING value`,
		name, baseline+1, sqlitedb.ToMillis(time.Now()),
	).Scan(&value)
	if err != nil {
		if sqlitedb.IsBusy(err) {
			return 0, fmt.Errorf("%w: %v", ErrContention, err)
		}
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}

func (r *repoSQLite) Current(ctx context.Context, name string) (int64, bool, error) {
	var value int64
	err := sqlitedb.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT value FROM sequence_counter WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read counter %s: %w", name, err)
	}
	return value, true, nil
}
