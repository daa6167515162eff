package visit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Order selects the sort of a search.
type Order int

const (
	// OrderRecent sorts by visit day then creation time, newest first.
	OrderRecent Order = iota
	// OrderQueue sorts by sequence number ascending.
	OrderQueue
)

// SearchFilter narrows a visit search. Zero fields do not filter.
type SearchFilter struct {
	// Search matches the patient's name case-insensitively, or the token
	// number when it is all digits (an optional token prefix is ignored).
	Search    string
	From      *time.Time
	To        *time.Time
	Status    Status
	PatientID uuid.UUID
	// Unbilled keeps only visits without a bill.
	Unbilled bool
	Order    Order
	Limit    int
	Offset   int
}

type Repository interface {
	// Create inserts v. It fails with ErrOpenVisitExists when the patient
	// already has an open visit that day.
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	// FindOpen returns the open visit for (patientID, day), or nil.
	FindOpen(ctx context.Context, patientID uuid.UUID, day time.Time) (*Visit, error)
	// CompareAndSetStatus moves id from one status to another and reports
	// whether the row was still in from.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) (bool, error)
	Search(ctx context.Context, f SearchFilter) ([]*Visit, int, error)
}
