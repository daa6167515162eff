// Package history is the read-only projection over visits and the
// prescriptions and bills attached to them.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mariyask04/Clinic-Management/internal/domain/billing"
	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/domain/prescription"
	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
)

var tracer = otel.Tracer("github.com/mariyask04/Clinic-Management/internal/domain/history")

// VisitSource is the part of the visit registry the projection reads.
type VisitSource interface {
	GetVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	Search(ctx context.Context, f visit.SearchFilter) ([]*visit.Visit, int, error)
	TokenPrefix() string
	Today() time.Time
}

type PrescriptionSource interface {
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*prescription.Prescription, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*prescription.Prescription, error)
}

type BillSource interface {
	GetByVisit(ctx context.Context, visitID uuid.UUID) (*billing.Bill, error)
	ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*billing.Bill, error)
}

type Service struct {
	visits        VisitSource
	patients      patient.Directory
	prescriptions PrescriptionSource
	bills         BillSource
}

func NewService(visits VisitSource, patients patient.Directory, rx PrescriptionSource, bills BillSource) *Service {
	return &Service{visits: visits, patients: patients, prescriptions: rx, bills: bills}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Query pages through visits matching f, newest first unless f.Order says
// otherwise, and attaches patient, prescription and bill to each.
func (s *Service) Query(ctx context.Context, f visit.SearchFilter, limit, offset int) (_ []Entry, _ int, err error) {
	ctx, span := tracer.Start(ctx, "history.Query")
	span.SetAttributes(attribute.String("search", f.Search), attribute.Int("limit", limit), attribute.Int("offset", offset))
	defer func() { endSpan(span, err) }()

	f.Limit, f.Offset = limit, offset
	visits, total, err := s.visits.Search(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.expand(ctx, visits)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (s *Service) expand(ctx context.Context, visits []*visit.Visit) ([]Entry, error) {
	entries := make([]Entry, 0, len(visits))
	if len(visits) == 0 {
		return entries, nil
	}

	visitIDs := make([]uuid.UUID, len(visits))
	seen := make(map[uuid.UUID]bool)
	var patientIDs []uuid.UUID
	for i, v := range visits {
		visitIDs[i] = v.ID
		if !seen[v.PatientID] {
			seen[v.PatientID] = true
			patientIDs = append(patientIDs, v.PatientID)
		}
	}

	var (
		patients map[uuid.UUID]*patient.Patient
		rx       map[uuid.UUID]*prescription.Prescription
		bills    map[uuid.UUID]*billing.Bill
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		patients, err = s.patients.GetPatients(gctx, patientIDs)
		return err
	})
	g.Go(func() (err error) {
		rx, err = s.prescriptions.ListByVisitIDs(gctx, visitIDs)
		return err
	})
	g.Go(func() (err error) {
		bills, err = s.bills.ListByVisitIDs(gctx, visitIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prefix := s.visits.TokenPrefix()
	for _, v := range visits {
		entries = append(entries, Entry{
			Visit:        v.View(prefix),
			Patient:      patients[v.PatientID],
			Prescription: rx[v.ID],
			Bill:         bills[v.ID],
		})
	}
	return entries, nil
}

// Detail returns one visit with its patient, prescription and bill.
func (s *Service) Detail(ctx context.Context, visitID uuid.UUID) (_ *Entry, err error) {
	ctx, span := tracer.Start(ctx, "history.Detail")
	span.SetAttributes(attribute.String("visit.id", visitID.String()))
	defer func() { endSpan(span, err) }()

	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	e := &Entry{Visit: v.View(s.visits.TokenPrefix())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.patients.GetPatient(gctx, v.PatientID)
		if errors.Is(err, patient.ErrNotFound) {
			return nil
		}
		e.Patient = p
		return err
	})
	g.Go(func() error {
		rx, err := s.prescriptions.GetByVisit(gctx, visitID)
		if errors.Is(err, prescription.ErrNotFound) {
			return nil
		}
		e.Prescription = rx
		return err
	})
	g.Go(func() error {
		b, err := s.bills.GetByVisit(gctx, visitID)
		if errors.Is(err, billing.ErrNotFound) {
			return nil
		}
		e.Bill = b
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return e, nil
}

// TodayQueue lists today's visits in token order, optionally narrowed to
// one status.
func (s *Service) TodayQueue(ctx context.Context, status visit.Status) ([]Entry, error) {
	today := s.visits.Today()
	entries, _, err := s.Query(ctx, visit.SearchFilter{
		From: &today, To: &today, Status: status, Order: visit.OrderQueue,
	}, 0, 0)
	return entries, err
}

// PendingBilling lists today's completed visits that have no bill yet.
func (s *Service) PendingBilling(ctx context.Context) ([]Entry, error) {
	today := s.visits.Today()
	entries, _, err := s.Query(ctx, visit.SearchFilter{
		From: &today, To: &today, Status: visit.StatusCompleted, Unbilled: true, Order: visit.OrderQueue,
	}, 0, 0)
	return entries, err
}

// PatientHistory pages through one patient's visits, newest first.
func (s *Service) PatientHistory(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Entry, int, error) {
	if _, err := s.patients.GetPatient(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.Query(ctx, visit.SearchFilter{PatientID: patientID}, limit, offset)
}
