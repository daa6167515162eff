package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

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

const billCols = `id, visit_id, patient_id, line_items, total_amount::text, payment_status, paid_at, created_at`

type pgScanner interface {
	Scan(dest ...interface{}) error
}

func scanPG(row pgScanner) (*Bill, error) {
	var (
		b     Bill
		total string
	)
	if err := row.Scan(&b.ID, &b.VisitID, &b.PatientID, &b.LineItems, &total,
		&b.PaymentStatus, &b.PaidAt, &b.CreatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	b.TotalAmount = amount
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, visit_id, patient_id, line_items, total_amount, payment_status, paid_at, created_at)
		VALUES ($1, $2, $3, $4, CAST($5::text AS NUMERIC), $6, $7, $8)`,
		b.ID, b.VisitID, b.PatientID, b.LineItems, b.TotalAmount.String(),
		string(b.PaymentStatus), b.PaidAt, b.CreatedAt,
	)
	if db.IsUniqueViolation(err, "bill_visit_id_key") {
		return ErrAlreadyExists.WithID(b.VisitID.String())
	}
	return apperr.Storage("create bill", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanPG(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load bill", err)
	}
	return b, nil
}

func (r *repoPG) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error) {
	b, err := scanPG(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE visit_id = $1`, visitID))
	if db.IsNoRows(err) {
		return nil, ErrNotFound.WithID(visitID.String()).WithDetail("visit_id", visitID.String())
	}
	if err != nil {
		return nil, apperr.Storage("load bill", err)
	}
	return b, nil
}

func (r *repoPG) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Bill, error) {
	out := make(map[uuid.UUID]*Bill, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bill WHERE visit_id = ANY($1)`, visitIDs)
	if err != nil {
		return nil, apperr.Storage("list bills", err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanPG(rows)
		if err != nil {
			return nil, apperr.Storage("scan bill", err)
		}
		out[b.VisitID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("list bills", err)
	}
	return out, nil
}

func (r *repoPG) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET payment_status = 'paid', paid_at = $2
		WHERE id = $1 AND payment_status = 'pending'`, id, at)
	if err != nil {
		return false, apperr.Storage("mark bill paid", err)
	}
	return tag.RowsAffected() == 1, nil
}
