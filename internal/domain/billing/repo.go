package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists bills. Create maps a second bill for the same visit
// to ErrAlreadyExists. MarkPaid reports false when no pending bill matched.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Bill, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
