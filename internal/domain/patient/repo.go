package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
)

var ErrNotFound = apperr.New(apperr.NotFound, "patient_not_found", "patient", "patient not found")

// Directory resolves patients by id.
type Directory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetPatients returns the patients that exist among ids, keyed by id.
	GetPatients(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Patient, error)
}
