package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create fails with ErrAlreadyExists if the visit already has one.
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*Prescription, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Prescription, error)
}
