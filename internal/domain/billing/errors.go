package billing

import "github.com/mariyask04/Clinic-Management/internal/platform/apperr"

var (
	ErrNotFound        = apperr.New(apperr.NotFound, "bill_not_found", "bill", "bill not found")
	ErrPatientMismatch = apperr.New(apperr.InvalidInput, "patient_mismatch", "visit", "visit belongs to another patient")
	ErrEmptyLineItems  = apperr.New(apperr.InvalidInput, "empty_line_items", "bill", "bill needs at least one line item with a non-negative amount")
	ErrInvalidLineItem = apperr.New(apperr.InvalidInput, "invalid_line_item", "bill", "line item needs a description")
	ErrInvalidAmount   = apperr.New(apperr.InvalidInput, "invalid_amount", "bill", "amount has more than two decimal places")
	ErrTotalTooLarge   = apperr.New(apperr.InvalidInput, "total_too_large", "bill", "bill total must be below 1000000000000")
	ErrAlreadyExists   = apperr.New(apperr.Conflict, "bill_already_exists", "bill", "visit already has a bill")
	ErrAlreadyPaid     = apperr.New(apperr.Conflict, "already_paid", "bill", "bill is already paid")
)
