package history

import (
	"github.com/mariyask04/Clinic-Management/internal/domain/billing"
	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/domain/prescription"
	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
)

// Entry is one visit joined with the records hanging off it. Prescription
// and Bill are nil when the visit has none.
type Entry struct {
	Visit        visit.View                 `json:"visit"`
	Patient      *patient.Patient           `json:"patient"`
	Prescription *prescription.Prescription `json:"prescription"`
	Bill         *billing.Bill              `json:"bill"`
}
