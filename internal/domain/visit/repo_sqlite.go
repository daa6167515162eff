package visit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
	"github.com/mariyask04/Clinic-Management/pkg/sqlsearch"
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

var sqliteDialect = dialect{
	style: sqlsearch.Question,
	id:    func(id uuid.UUID) interface{} { return id.String() },
	day:   func(t time.Time) interface{} { return t.Format(DateLayout) },
}

type sqlScanner interface {
	Scan(dest ...interface{}) error
}

func scanVisitSQLite(row sqlScanner) (*Visit, error) {
	var (
		v                    Visit
		id, patientID, day   string
		status               string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&id, &v.SequenceNumber, &patientID, &day, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if v.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if v.PatientID, err = uuid.Parse(patientID); err != nil {
		return nil, err
	}
	if v.VisitDate, err = ParseDay(day); err != nil {
		return nil, err
	}
	v.Status = Status(status)
	v.CreatedAt = sqlitedb.FromMillis(createdAt)
	v.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	return &v, nil
}

func (r *repoSQLite) Create(ctx context.Context, v *Visit) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO visit (id, sequence_number, patient_id, visit_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID.String(), v.SequenceNumber, v.PatientID.String(), v.VisitDate.Format(DateLayout),
		string(v.Status), sqlitedb.ToMillis(v.CreatedAt), sqlitedb.ToMillis(v.UpdatedAt),
	)
	if sqlitedb.IsUniqueViolation(err, "visit.patient_id") {
		return ErrOpenVisitExists.WithID(v.PatientID.String())
	}
	return apperr.Storage("create visit", err)
}

func (r *repoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisitSQLite(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+visitCols+` FROM visit v WHERE v.id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVisitNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load visit", err)
	}
	return v, nil
}

func (r *repoSQLite) FindOpen(ctx context.Context, patientID uuid.UUID, day time.Time) (*Visit, error) {
	v, err := scanVisitSQLite(r.conn(ctx).QueryRowContext(ctx, `
		SELECT `+visitCols+` FROM visit v
		WHERE v.patient_id = ? AND v.visit_date = ? AND v.status <> 'completed'
		LIMIT 1`, patientID.String(), day.Format(DateLayout)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("find open visit", err)
	}
	return v, nil
}

func (r *repoSQLite) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (bool, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE visit SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), sqlitedb.ToMillis(at), id.String(), string(from))
	if err != nil {
		return false, apperr.Storage("update visit status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage("update visit status", err)
	}
	return n == 1, nil
}

func (r *repoSQLite) Search(ctx context.Context, f SearchFilter) ([]*Visit, int, error) {
	q := buildSearch(f, sqliteDialect)

	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count visits", err)
	}

	rows, err := r.conn(ctx).QueryContext(ctx, q.DataSQL(f.Limit), q.DataArgs(f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, apperr.Storage("search visits", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisitSQLite(rows)
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
