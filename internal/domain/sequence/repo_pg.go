package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mariyask04/Clinic-Management/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Increment(ctx context.Context, name string, baseline int64) (int64, error) {
	var value int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO sequence_counter (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET value = sequence_counter.value + 1, updated_at = NOW()
		RETURNING value`,
		name, baseline+1,
	).Scan(&value)
	if err != nil {
		if db.IsTransient(err) {
			return 0, fmt.Errorf("%w: %v", ErrContention, err)
		}
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}

func (r *repoPG) Current(ctx context.Context, name string) (int64, bool, error) {
	var value int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT value FROM sequence_counter WHERE name = $1`, name).Scan(&value)
	if db.IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read counter %s: %w", name, err)
	}
	return value, true, nil
}
