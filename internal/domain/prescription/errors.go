package prescription

import "github.com/mariyask04/Clinic-Management/internal/platform/apperr"

var (
	ErrNotFound          = apperr.New(apperr.NotFound, "prescription_not_found", "prescription", "prescription not found")
	ErrPatientMismatch   = apperr.New(apperr.InvalidInput, "patient_mismatch", "visit", "visit does not belong to this patient")
	ErrInvalidVisitState = apperr.New(apperr.Conflict, "invalid_visit_state", "visit", "visit is not in consultation")
	ErrAlreadyExists     = apperr.New(apperr.Conflict, "prescription_already_exists", "visit", "visit already has a prescription")
	ErrPartialCommit     = apperr.New(apperr.PartialCommit, "partial_commit", "prescription", "prescription saved but visit was not completed")

	ErrAuthorRequired  = apperr.Invalid("author_required", "author id is required")
	ErrEmptyContent    = apperr.Invalid("prescription_empty", "a diagnosis or at least one medicine is required")
	ErrMedicineUnnamed = apperr.Invalid("medicine_name_required", "every medicine needs a name")
)
