package visit

import "github.com/mariyask04/Clinic-Management/internal/platform/apperr"

var (
	ErrVisitNotFound          = apperr.New(apperr.NotFound, "visit_not_found", "visit", "visit not found")
	ErrIllegalTransition      = apperr.New(apperr.IllegalTransition, "illegal_transition", "visit", "illegal status transition")
	ErrTransitionNotPermitted = apperr.New(apperr.IllegalTransition, "transition_not_permitted", "visit", "role may not perform this transition")
	ErrOpenVisitExists        = apperr.New(apperr.Conflict, "open_visit_exists", "visit", "patient already has an open visit today")
	ErrInvalidStatus          = apperr.Invalid("invalid_status", "status must be waiting, in_consultation or completed")
	ErrPatientRequired        = apperr.Invalid("patient_id_required", "patient id is required")
)

func illegal(v *Visit, requested Status) error {
	return ErrIllegalTransition.WithID(v.ID.String()).
		WithDetail("current", string(v.Status)).
		WithDetail("requested", string(requested))
}
