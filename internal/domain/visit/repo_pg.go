package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/db"
	"github.com/mariyask04/Clinic-Management/pkg/sqlsearch"
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

var pgDialect = dialect{
	style: sqlsearch.Dollar,
	id:    func(id uuid.UUID) interface{} { return id },
	day:   func(t time.Time) interface{} { return t },
}

type pgScanner interface {
	Scan(dest ...interface{}) error
}

func scanVisitPG(row pgScanner) (*Visit, error) {
	var v Visit
	var status string
	if err := row.Scan(&v.ID, &v.SequenceNumber, &v.PatientID, &v.VisitDate, &status, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	v.Status = Status(status)
	v.VisitDate = Day(v.VisitDate, nil)
	return &v, nil
}

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, sequence_number, patient_id, visit_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.SequenceNumber, v.PatientID, v.VisitDate, string(v.Status), v.CreatedAt, v.UpdatedAt,
	)
	if db.IsUniqueViolation(err, "visit_open_per_day") {
		return ErrOpenVisitExists.WithID(v.PatientID.String())
	}
	return apperr.Storage("create visit", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisitPG(r.conn(ctx).QueryRow(ctx,
		`SELECT `+visitCols+` FROM visit v WHERE v.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, ErrVisitNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load visit", err)
	}
	return v, nil
}

func (r *repoPG) FindOpen(ctx context.Context, patientID uuid.UUID, day time.Time) (*Visit, error) {
	v, err := scanVisitPG(r.conn(ctx).QueryRow(ctx, `
		SELECT `+visitCols+` FROM visit v
		WHERE v.patient_id = $1 AND v.visit_date = $2 AND v.status <> 'completed'
		LIMIT 1`, patientID, day))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("find open visit", err)
	}
	return v, nil
}

func (r *repoPG) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at)
	if err != nil {
		return false, apperr.Storage("update visit status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repoPG) Search(ctx context.Context, f SearchFilter) ([]*Visit, int, error) {
	q := buildSearch(f, pgDialect)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count visits", err)
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(f.Limit), q.DataArgs(f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, apperr.Storage("search visits", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisitPG(rows)
		if err != nil {
			return nil, 0, apperr.Storage("scan visit", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage("search visits", err)
	}
	return visits, total, nil
}
