package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

type repoSQLite struct {
	db *sql.DB
}

func NewSQLiteRepo(sqlDB *sql.DB) Repository {
	return &repoSQLite{db: sqlDB}
}

func (r *repoSQLite) conn(ctx context.Context) sqlitedb.Querier {
	return sqlitedb.Conn(ctx, r.db)
}

const sqliteBillCols = `id, visit_id, patient_id, line_items, total_amount, payment_status, paid_at, created_at`

type sqlScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLite(row sqlScanner) (*Bill, error) {
	var (
		b                      Bill
		id, visitID, patientID string
		items, total, status   string
		paidAt                 sql.NullInt64
		createdAt              int64
	)
	if err := row.Scan(&id, &visitID, &patientID, &items, &total, &status, &paidAt, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if b.VisitID, err = uuid.Parse(visitID); err != nil {
		return nil, err
	}
	if b.PatientID, err = uuid.Parse(patientID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &b.LineItems); err != nil {
		return nil, err
	}
	if b.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	b.PaymentStatus = PaymentStatus(status)
	if paidAt.Valid {
		t := sqlitedb.FromMillis(paidAt.Int64)
		b.PaidAt = &t
	}
	b.CreatedAt = sqlitedb.FromMillis(createdAt)
	return &b, nil
}

func (r *repoSQLite) Create(ctx context.Context, b *Bill) error {
	items, err := json.Marshal(b.LineItems)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO bill (`+sqliteBillCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.VisitID.String(), b.PatientID.String(), string(items),
		b.TotalAmount.String(), string(b.PaymentStatus), sqlitedb.NullMillis(b.PaidAt),
		sqlitedb.ToMillis(b.CreatedAt),
	)
	if sqlitedb.IsUniqueViolation(err, "bill.visit_id") {
		return ErrAlreadyExists.WithID(b.VisitID.String())
	}
	return apperr.Storage("create bill", err)
}

func (r *repoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanSQLite(r.conn(ctx).QueryRowContext(ctx, `SELECT `+sqliteBillCols+` FROM bill WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load bill", err)
	}
	return b, nil
}

func (r *repoSQLite) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error) {
	b, err := scanSQLite(r.conn(ctx).QueryRowContext(ctx, `SELECT `+sqliteBillCols+` FROM bill WHERE visit_id = ?`, visitID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithID(visitID.String()).WithDetail("visit_id", visitID.String())
	}
	if err != nil {
		return nil, apperr.Storage("load bill", err)
	}
	return b, nil
}

func (r *repoSQLite) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Bill, error) {
	out := make(map[uuid.UUID]*Bill, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(visitIDs))
	for i, id := range visitIDs {
		args[i] = id.String()
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+sqliteBillCols+` FROM bill WHERE visit_id IN (`+strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")+`)`,
		args...)
	if err != nil {
		return nil, apperr.Storage("list bills", err)
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanSQLite(rows)
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

func (r *repoSQLite) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE bill SET payment_status = 'paid', paid_at = ?
		WHERE id = ? AND payment_status = 'pending'`, sqlitedb.ToMillis(at), id.String())
	if err != nil {
		return false, apperr.Storage("mark bill paid", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("mark bill paid", err)
	}
	return n == 1, nil
}
