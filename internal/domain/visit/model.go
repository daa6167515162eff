package visit

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Status is a visit's position in the consultation workflow.
type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusInConsultation Status = "in_consultation"
	StatusCompleted      Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInConsultation, StatusCompleted:
		return true
	}
	return false
}

// Open reports whether a visit in s still counts against the one open visit
// per patient per day.
func (s Status) Open() bool {
	return s != StatusCompleted
}

// Role is the acting role resolved by the identity layer.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// edges lists the only legal moves of the state machine.
var edges = map[Status]Status{
	StatusWaiting:        StatusInConsultation,
	StatusInConsultation: StatusCompleted,
}

// CanAdvance reports whether from→to is a legal edge.
func CanAdvance(from, to Status) bool {
	next, ok := edges[from]
	return ok && next == to
}

// Visit is one check-in of a patient on a calendar day. Its sequence number
// is the printed token and is never reused.
type Visit struct {
	ID             uuid.UUID `json:"id"`
	SequenceNumber int64     `json:"sequence_number"`
	PatientID      uuid.UUID `json:"patient_id"`
	VisitDate      time.Time `json:"visit_date"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TokenNumber renders the human token, e.g. "P100".
func (v *Visit) TokenNumber(prefix string) string {
	return prefix + strconv.FormatInt(v.SequenceNumber, 10)
}

const DateLayout = "2006-01-02"

// View is the wire form of a visit.
type View struct {
	ID             uuid.UUID `json:"id"`
	TokenNumber    string    `json:"token_number"`
	SequenceNumber int64     `json:"sequence_number"`
	PatientID      uuid.UUID `json:"patient_id"`
	VisitDate      string    `json:"visit_date"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (v *Visit) View(prefix string) View {
	return View{
		ID:             v.ID,
		TokenNumber:    v.TokenNumber(prefix),
		SequenceNumber: v.SequenceNumber,
		PatientID:      v.PatientID,
		VisitDate:      v.VisitDate.Format(DateLayout),
		Status:         v.Status,
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

// Day truncates t to its calendar day in loc, returned as UTC midnight so
// days compare equal regardless of the zone they were computed in.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses "2006-01-02" as a calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
