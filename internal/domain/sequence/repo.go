package sequence

import (
	"context"
	"errors"
)

// ErrContention marks a storage failure caused by lock or serialization
// contention. Only these are retried.
var ErrContention = errors.New("sequence counter contention")

// Repository is the persisted counter. Increment must be a single atomic
// increment-and-fetch; a missing counter starts at baseline+1.
type Repository interface {
	Increment(ctx context.Context, name string, baseline int64) (int64, error)
	// Current returns the last issued value and whether the counter exists.
	Current(ctx context.Context, name string) (int64, bool, error)
}
