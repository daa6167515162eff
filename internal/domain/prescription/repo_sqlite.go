package prescription

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

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

type sqlScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLite(row sqlScanner) (*Prescription, error) {
	var (
		p                      Prescription
		id, visitID, patientID string
		medicines              string
		followUp               sql.NullString
		createdAt              int64
	)
	if err := row.Scan(&id, &visitID, &patientID, &p.AuthorID, &p.Diagnosis,
		&medicines, &p.Advice, &followUp, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if p.VisitID, err = uuid.Parse(visitID); err != nil {
		return nil, err
	}
	if p.PatientID, err = uuid.Parse(patientID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(medicines), &p.Medicines); err != nil {
		return nil, err
	}
	if p.Medicines == nil {
		p.Medicines = []Medicine{}
	}
	if followUp.Valid {
		d, err := sqlitedb.ParseDate(followUp.String)
		if err != nil {
			return nil, err
		}
		p.FollowUpDate = &d
	}
	p.CreatedAt = sqlitedb.FromMillis(createdAt)
	return &p, nil
}

func (r *repoSQLite) Create(ctx context.Context, p *Prescription) error {
	if p.Medicines == nil {
		p.Medicines = []Medicine{}
	}
	medicines, err := json.Marshal(p.Medicines)
	if err != nil {
		return err
	}
	var followUp sql.NullString
	if p.FollowUpDate != nil {
		followUp = sql.NullString{String: p.FollowUpDate.Format(sqlitedb.DateLayout), Valid: true}
	}
	_, err = r.conn(ctx).ExecContext(ctx, `
		INSERT INTO prescription (`+rxCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.VisitID.String(), p.PatientID.String(), p.AuthorID, p.Diagnosis,
		string(medicines), p.Advice, followUp, sqlitedb.ToMillis(p.CreatedAt),
	)
	if sqlitedb.IsUniqueViolation(err, "prescription.visit_id") {
		return ErrAlreadyExists.WithID(p.VisitID.String())
	}
	return apperr.Storage("create prescription", err)
}

func (r *repoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanSQLite(r.conn(ctx).QueryRowContext(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithID(id.String())
	}
	if err != nil {
		return nil, apperr.Storage("load prescription", err)
	}
	return p, nil
}

func (r *repoSQLite) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Prescription, error) {
	p, err := scanSQLite(r.conn(ctx).QueryRowContext(ctx, `SELECT `+rxCols+` FROM prescription WHERE visit_id = ?`, visitID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound.WithID(visitID.String())
	}
	if err != nil {
		return nil, apperr.Storage("load prescription", err)
	}
	return p, nil
}

func (r *repoSQLite) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Prescription, error) {
	out := make(map[uuid.UUID]*Prescription, len(visitIDs))
	if len(visitIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(visitIDs))
	for i, id := range visitIDs {
		args[i] = id.String()
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE visit_id IN (`+strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")+`)`,
		args...)
	if err != nil {
		return nil, apperr.Storage("list prescriptions", err)
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanSQLite(rows)
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
