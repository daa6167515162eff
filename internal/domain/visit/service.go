// Package visit owns visit records and their consultation state machine.
package visit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/platform/keylock"
)

var tracer = otel.Tracer("github.com/mariyask04/Clinic-Management/internal/domain/visit")

// SequenceSource issues token numbers.
type SequenceSource interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// Reader is the read capability the gates consume.
type Reader interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error)
}

// Transitioner is the write capability the gates consume.
type Transitioner interface {
	Transition(ctx context.Context, id uuid.UUID, requested Status, actor Role) (*Visit, error)
}

type Service struct {
	repo     Repository
	patients patient.Directory
	seq      SequenceSource
	counter  string
	prefix   string
	policy   TransitionPolicy
	locks    *keylock.Locker
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

func NewService(repo Repository, patients patient.Directory, seq SequenceSource) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		seq:      seq,
		counter:  "token",
		prefix:   "P",
		policy:   DefaultRoleMatrix(),
		locks:    keylock.New(),
		loc:      time.UTC,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
}

// SetPolicy replaces the role policy. A nil policy permits every role.
func (s *Service) SetPolicy(p TransitionPolicy) { s.policy = p }

// SetCounter sets the sequence counter name tokens are drawn from.
func (s *Service) SetCounter(name string) { s.counter = name }

// SetTokenPrefix sets the letter printed before sequence numbers.
func (s *Service) SetTokenPrefix(prefix string) { s.prefix = prefix }

// SetLocation sets the clinic's time zone, which defines "today".
func (s *Service) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// TokenPrefix returns the configured token prefix.
func (s *Service) TokenPrefix() string { return s.prefix }

// Today returns the clinic's current calendar day.
func (s *Service) Today() time.Time {
	return Day(s.now(), s.loc)
}

// OpenVisit checks a patient in for day. A patient who already has an open
// visit that day gets it back unchanged with created=false.
func (s *Service) OpenVisit(ctx context.Context, patientID uuid.UUID, day time.Time) (_ *Visit, created bool, err error) {
	ctx, span := tracer.Start(ctx, "visit.OpenVisit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("visit.created", created))
		span.End()
	}()

	if patientID == uuid.Nil {
		return nil, false, ErrPatientRequired
	}
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, false, err
	}
	day = Day(day, nil)
	span.SetAttributes(
		attribute.String("patient.id", patientID.String()),
		attribute.String("visit.date", day.Format(DateLayout)),
	)

	unlock := s.locks.Lock(patientID.String() + "|" + day.Format(DateLayout))
	defer unlock()

	existing, err := s.repo.FindOpen(ctx, patientID, day)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	seq, err := s.seq.NextSequence(ctx, s.counter)
	if err != nil {
		return nil, false, err
	}

	now := s.now().UTC()
	v := &Visit{
		ID:             uuid.New(),
		SequenceNumber: seq,
		PatientID:      patientID,
		VisitDate:      day,
		Status:         StatusWaiting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		if !errors.Is(err, ErrOpenVisitExists) {
			return nil, false, err
		}
		// Another replica won the race; its visit stands and our number is burnt.
		winner, ferr := s.repo.FindOpen(ctx, patientID, day)
		if ferr != nil {
			return nil, false, ferr
		}
		if winner == nil {
			return nil, false, err
		}
		s.logger.Info().
			Str("patient_id", patientID.String()).
			Int64("discarded_sequence", seq).
			Str("visit_id", winner.ID.String()).
			Msg("concurrent check-in collided, returning existing visit")
		return winner, false, nil
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("token", v.TokenNumber(s.prefix)).
		Str("patient_id", patientID.String()).
		Msg("visit opened")
	return v, true, nil
}

// Transition moves a visit along a legal edge on behalf of actor.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, requested Status, actor Role) (*Visit, error) {
	return s.TransitionAs(ctx, id, requested, []Role{actor})
}

// TransitionAs is Transition for a caller holding several roles. The first
// held role the policy accepts performs the move.
func (s *Service) TransitionAs(ctx context.Context, id uuid.UUID, requested Status, roles []Role) (_ *Visit, err error) {
	ctx, span := tracer.Start(ctx, "visit.Transition")
	span.SetAttributes(
		attribute.String("visit.id", id.String()),
		attribute.String("visit.requested", string(requested)),
		attribute.StringSlice("actor.roles", roleStrings(roles)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !requested.Valid() {
		return nil, ErrInvalidStatus.WithDetail("requested", string(requested))
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAdvance(v.Status, requested) {
		return nil, illegal(v, requested)
	}
	actor, ok := s.actingRole(roles, v.Status, requested)
	if !ok {
		return nil, ErrTransitionNotPermitted.WithID(id.String()).
			WithDetail("role", strings.Join(roleStrings(roles), ",")).
			WithDetail("current", string(v.Status)).
			WithDetail("requested", string(requested))
	}

	now := s.now().UTC()
	ok, err = s.repo.CompareAndSetStatus(ctx, id, v.Status, requested, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		fresh, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, illegal(fresh, requested)
	}

	from := v.Status
	v.Status = requested
	v.UpdatedAt = now
	s.logger.Info().
		Str("visit_id", id.String()).
		Str("from", string(from)).
		Str("to", string(requested)).
		Str("role", string(actor)).
		Msg("visit status changed")
	return v, nil
}

func (s *Service) actingRole(roles []Role, from, to Status) (Role, bool) {
	if s.policy == nil {
		if len(roles) == 0 {
			return "", true
		}
		return roles[0], true
	}
	for _, r := range roles {
		if s.policy.CanTransition(r, from, to) {
			return r, true
		}
	}
	return "", false
}

func roleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// Search runs a filtered visit query. A search term written as a token
// ("P104") is matched on its digits.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]*Visit, int, error) {
	f.Search = s.normalizeSearch(f.Search)
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus.WithDetail("status", string(f.Status))
	}
	return s.repo.Search(ctx, f)
}

func (s *Service) normalizeSearch(term string) string {
	term = strings.TrimSpace(term)
	if s.prefix == "" || len(term) <= len(s.prefix) {
		return term
	}
	if strings.EqualFold(term[:len(s.prefix)], s.prefix) && isDigits(term[len(s.prefix):]) {
		return term[len(s.prefix):]
	}
	return term
}
