package patient

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

type repoSQLite struct {
	db *sql.DB
}

func NewSQLiteRepo(sqlDB *sql.DB) Directory {
	return &repoSQLite{db: sqlDB}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*Patient, error) {
	var (
		p       Patient
		id      string
		created int64
	)
	if err := row.Scan(&id, &p.FullName, &p.Phone, &p.Email, &created); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	p.ID = parsed
	p.CreatedAt = sqlitedb.FromMillis(created)
	return &p, nil
}

func (r *repoSQLite) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(sqlitedb.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, full_name, phone, email, created_at FROM patient WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load patient", err)
	}
	return p, nil
}

func (r *repoSQLite) GetPatients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Patient, error) {
	out := make(map[uuid.UUID]*Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := sqlitedb.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, full_name, phone, email, created_at FROM patient WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperr.Storage("load patients", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.Storage("scan patient", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("load patients", err)
	}
	return out, nil
}

// Seed inserts a patient row. The registration system owns patients; this
// exists for local single-node setups and tests.
func Seed(ctx context.Context, sqlDB *sql.DB, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := sqlitedb.Conn(ctx, sqlDB).ExecContext(ctx,
		`INSERT INTO patient (id, full_name, phone, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID.String(), p.FullName, p.Phone, p.Email, sqlitedb.ToMillis(p.CreatedAt))
	return err
}
