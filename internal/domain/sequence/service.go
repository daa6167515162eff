// Package sequence issues visit token numbers from a persisted counter.
package sequence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
)

// DefaultBaseline makes the first token of a fresh counter 100.
const DefaultBaseline int64 = 99

var (
	ErrUnavailable = apperr.New(apperr.StorageUnavailable, "sequence_unavailable", "sequence_counter", "sequence counter unavailable")
	ErrNameInvalid = apperr.Invalid("counter_name_required", "counter name is required")
)

// Allocator hands out unique, strictly increasing numbers per counter name.
type Allocator struct {
	repo     Repository
	baseline int64
	maxTries uint
	backoff  func() backoff.BackOff
	logger   zerolog.Logger
}

func NewAllocator(repo Repository) *Allocator {
	return &Allocator{
		repo:     repo,
		baseline: DefaultBaseline,
		maxTries: 5,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 250 * time.Millisecond
			return b
		},
		logger: zerolog.Nop(),
	}
}

// SetBaseline sets the value a new counter starts after.
func (a *Allocator) SetBaseline(v int64) {
	a.baseline = v
}

// SetMaxTries bounds attempts made on contention, including the first.
func (a *Allocator) SetMaxTries(n uint) {
	if n > 0 {
		a.maxTries = n
	}
}

func (a *Allocator) SetLogger(l zerolog.Logger) {
	a.logger = l
}

// NextSequence increments the named counter and returns the new value.
// Contention reported by the store is retried with exponential backoff;
// any other failure is returned as ErrUnavailable and no number is issued.
func (a *Allocator) NextSequence(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrNameInvalid
	}

	op := func() (int64, error) {
		v, err := a.repo.Increment(ctx, name, a.baseline)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, ErrContention) {
			return 0, err
		}
		return 0, backoff.Permanent(err)
	}

	v, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(a.backoff()),
		backoff.WithMaxTries(a.maxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			a.logger.Warn().Err(err).Str("counter", name).Dur("retry_in", wait).Msg("sequence counter contended, retrying")
		}),
	)
	if err != nil {
		return 0, ErrUnavailable.WithID(name).Wrap(err)
	}
	return v, nil
}

// Peek returns the last issued value, or the baseline if none was issued.
func (a *Allocator) Peek(ctx context.Context, name string) (int64, error) {
	v, ok, err := a.repo.Current(ctx, name)
	if err != nil {
		return 0, ErrUnavailable.WithID(name).Wrap(err)
	}
	if !ok {
		return a.baseline, nil
	}
	return v, nil
}
