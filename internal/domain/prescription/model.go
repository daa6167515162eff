package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Medicine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Prescription is the clinical record of one visit. It is written once.
type Prescription struct {
	ID           uuid.UUID  `json:"id"`
	VisitID      uuid.UUID  `json:"visit_id"`
	PatientID    uuid.UUID  `json:"patient_id"`
	AuthorID     string     `json:"author_id"`
	Diagnosis    string     `json:"diagnosis"`
	Medicines    []Medicine `json:"medicines"`
	Advice       string     `json:"advice,omitempty"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Details is the clinician-supplied content of a prescription.
type Details struct {
	Diagnosis    string
	Medicines    []Medicine
	Advice       string
	FollowUpDate *time.Time
}
