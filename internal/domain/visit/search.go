package visit

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mariyask04/Clinic-Management/pkg/sqlsearch"
)

const visitCols = `v.id, v.sequence_number, v.patient_id, v.visit_date, v.status, v.created_at, v.updated_at`

const searchFrom = `visit v JOIN patient p ON p.id = v.patient_id`

// dialect converts filter values into each store's column representation.
type dialect struct {
	style sqlsearch.Placeholder
	id    func(uuid.UUID) interface{}
	day   func(time.Time) interface{}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func buildSearch(f SearchFilter, d dialect) *sqlsearch.Query {
	q := sqlsearch.New(searchFrom, visitCols, d.style)

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		if isDigits(s) {
			q.Add(`(LOWER(p.full_name) LIKE ? ESCAPE '\' OR CAST(v.sequence_number AS TEXT) LIKE ? ESCAPE '\')`, pattern, pattern)
		} else {
			q.Add(`LOWER(p.full_name) LIKE ? ESCAPE '\'`, pattern)
		}
	}
	if f.From != nil {
		q.Add("v.visit_date >= ?", d.day(*f.From))
	}
	if f.To != nil {
		q.Add("v.visit_date <= ?", d.day(*f.To))
	}
	if f.Status != "" {
		q.Add("v.status = ?", string(f.Status))
	}
	if f.PatientID != uuid.Nil {
		q.Add("v.patient_id = ?", d.id(f.PatientID))
	}
	if f.Unbilled {
		q.Add("NOT EXISTS (SELECT 1 FROM bill b WHERE b.visit_id = v.id)")
	}

	switch f.Order {
	case OrderQueue:
		q.OrderBy("v.sequence_number ASC")
	default:
		q.OrderBy("v.visit_date DESC, v.created_at DESC, v.sequence_number DESC")
	}
	return q
}
