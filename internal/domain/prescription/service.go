// Package prescription writes a visit's prescription and completes the visit.
package prescription

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
)

var tracer = otel.Tracer("github.com/mariyask04/Clinic-Management/internal/domain/prescription")

// Transactor runs fn inside one storage transaction bound to its context.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo         Repository
	visits       visit.Reader
	transitions  visit.Transitioner
	tx           Transactor
	clinicalRole visit.Role
	now          func() time.Time
	logger       zerolog.Logger
}

func NewService(repo Repository, visits visit.Reader, transitions visit.Transitioner) *Service {
	return &Service{
		repo:         repo,
		visits:       visits,
		transitions:  transitions,
		clinicalRole: visit.RoleDoctor,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
}

// SetTransactor makes the prescription insert and the visit completion
// commit together.
func (s *Service) SetTransactor(tx Transactor) { s.tx = tx }

// SetClinicalRole sets the role the completion transition runs as.
func (s *Service) SetClinicalRole(r visit.Role) { s.clinicalRole = r }

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

func validate(authorID string, d Details) error {
	if strings.TrimSpace(authorID) == "" {
		return ErrAuthorRequired
	}
	if strings.TrimSpace(d.Diagnosis) == "" && len(d.Medicines) == 0 {
		return ErrEmptyContent
	}
	for i, m := range d.Medicines {
		if strings.TrimSpace(m.Name) == "" {
			return ErrMedicineUnnamed.WithDetail("index", strconv.Itoa(i))
		}
	}
	return nil
}

// CreatePrescription records the prescription for a visit in consultation
// and completes the visit. Preconditions are checked in order: visit
// exists, belongs to patientID, is in consultation, has no prescription.
// Content is validated only after all four hold.
func (s *Service) CreatePrescription(ctx context.Context, visitID, patientID uuid.UUID, authorID string, d Details) (_ *Prescription, err error) {
	ctx, span := tracer.Start(ctx, "prescription.Create")
	span.SetAttributes(attribute.String("visit.id", visitID.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var created *Prescription
	run := func(ctx context.Context) error {
		v, err := s.visits.GetVisit(ctx, visitID)
		if err != nil {
			return err
		}
		if v.PatientID != patientID {
			return ErrPatientMismatch.WithID(visitID.String()).WithDetail("patient_id", patientID.String())
		}
		if v.Status != visit.StatusInConsultation {
			return ErrInvalidVisitState.WithID(visitID.String()).WithDetail("current", string(v.Status))
		}
		if _, err := s.repo.GetByVisit(ctx, visitID); err == nil {
			return ErrAlreadyExists.WithID(visitID.String())
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := validate(authorID, d); err != nil {
			return err
		}

		p := &Prescription{
			ID:           uuid.New(),
			VisitID:      visitID,
			PatientID:    patientID,
			AuthorID:     authorID,
			Diagnosis:    strings.TrimSpace(d.Diagnosis),
			Medicines:    d.Medicines,
			Advice:       strings.TrimSpace(d.Advice),
			FollowUpDate: d.FollowUpDate,
			CreatedAt:    s.now().UTC(),
		}
		if p.FollowUpDate != nil {
			day := visit.Day(*p.FollowUpDate, nil)
			p.FollowUpDate = &day
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}

		if _, err := s.transitions.Transition(ctx, visitID, visit.StatusCompleted, s.clinicalRole); err != nil {
			if s.tx != nil {
				// The transaction rolls the prescription back.
				return err
			}
			s.logger.Error().Err(err).
				Str("prescription_id", p.ID.String()).
				Str("visit_id", visitID.String()).
				Msg("prescription stored but visit completion failed")
			return ErrPartialCommit.WithID(p.ID.String()).WithDetail("visit_id", visitID.String()).Wrap(err)
		}
		created = p
		return nil
	}

	if s.tx != nil {
		err = s.tx.InTx(ctx, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, apperr.Storage("create prescription", err)
	}

	s.logger.Info().
		Str("prescription_id", created.ID.String()).
		Str("visit_id", visitID.String()).
		Str("author_id", authorID).
		Msg("prescription created, visit completed")
	return created, nil
}

func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Prescription, error) {
	return s.repo.GetByVisit(ctx, visitID)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByVisitIDs returns prescriptions keyed by visit id; visits without one
// are absent from the map.
func (s *Service) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Prescription, error) {
	return s.repo.ListByVisitIDs(ctx, visitIDs)
}
