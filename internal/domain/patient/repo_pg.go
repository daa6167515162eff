package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Directory {
	return &repoPG{pool: pool}
}

const patientCols = `id, full_name, COALESCE(phone, ''), COALESCE(email, ''), created_at`

func (r *repoPG) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id,
	).Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &p.CreatedAt)
	if db.IsNoRows(err) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load patient", err)
	}
	return &p, nil
}

func (r *repoPG) GetPatients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Patient, error) {
	out := make(map[uuid.UUID]*Patient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, apperr.Storage("load patients", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FullName, &p.Phone, &p.Email, &p.CreatedAt); err != nil {
			return nil, apperr.Storage("scan patient", err)
		}
		out[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("load patients", err)
	}
	return out, nil
}
