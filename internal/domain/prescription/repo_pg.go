package prescription

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

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const rxCols = `id, visit_id, patient_id, author_id, diagnosis, medicines, advice, follow_up_date, created_at`

type pgScanner interface {
	Scan(dest ...interface{}) error
}

func scanPG(row pgScanner) (*Prescription, error) {
	var p Prescription
	if err := row.Scan(&p.ID, &p.VisitID, &p.PatientID, &p.AuthorID, &p.Diagnosis,
		&p.Medicines, &p.Advice, &p.FollowUpDate, &p.CreatedAt); err != nil {
		return nil, err
	}
	if p.Medicines == nil {
		p.Medicines = []Medicine{}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.Medicines == nil {
		p.Medicines = []Medicine{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescription (`+rxCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.VisitID, p.PatientID, p.AuthorID, p.Diagnosis,
		p.Medicines, p.Advice, p.FollowUpDate, p.CreatedAt,
	)
	if db.IsUniqueViolation(err, "prescription_visit_id_key") {
		return ErrAlreadyExists.WithID(p.VisitID.String())
	}
	return apperr.Storage("create prescription", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPG(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load prescription", err)
	}
	return p, nil
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Prescription, error) {
	p, err := scanPG(r.conn(ctx).QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE visit_id = $1`, visitID))
	if db.IsNoRows(err) {
		return nil, ErrNotFound.WithID(visitID.String())
	}
	if err != nil {
		return nil, apperr.Storage("load prescription", err)
	}
	return p, nil
}

func (r *repoPG) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Prescription, error) {
	out := make(map[uuid.UUID]*Prescription, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rxCols+` FROM prescription WHERE visit_id = ANY($1)`, visitIDs)
	if err != nil {
		return nil, apperr.Storage("list prescriptions", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanPG(rows)
		if err != nil {
			return nil, apperr.Storage("scan prescription", err)
		}
		out[p.VisitID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list prescriptions", err)
	}
	return out, nil
}
