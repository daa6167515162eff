// Package billing raises at most one bill per visit and records its payment.
package billing

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
)

var tracer = otel.Tracer("github.com/mariyask04/Clinic-Management/internal/domain/billing")

// amountScale is the number of decimal places an amount may carry.
const amountScale = 2

// maxTotal is the exclusive upper bound on a bill total; it matches the
// NUMERIC(14, 2) column.
var maxTotal = decimal.New(1, 12)

type Service struct {
	repo   Repository
	visits visit.Reader
	now    func() time.Time
	logger zerolog.Logger
}

func NewService(repo Repository, visits visit.Reader) *Service {
	return &Service{repo: repo, visits: visits, now: time.Now, logger: zerolog.Nop()}
}

func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func normalizeItems(items []LineItem) ([]LineItem, error) {
	if len(items) == 0 {
		return nil, ErrEmptyLineItems
	}
	out := make([]LineItem, len(items))
	for i, it := range items {
		if it.Amount.IsNegative() {
			return nil, ErrEmptyLineItems.WithDetail("index", strconv.Itoa(i))
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			return nil, ErrInvalidLineItem.WithDetail("index", strconv.Itoa(i))
		}
		if !it.Amount.Equal(it.Amount.Round(amountScale)) {
			return nil, ErrInvalidAmount.WithDetail("index", strconv.Itoa(i)).WithDetail("amount", it.Amount.String())
		}
		out[i] = LineItem{Description: desc, Amount: it.Amount}
	}
	if total := Total(out); total.GreaterThanOrEqual(maxTotal) {
		return nil, ErrTotalTooLarge.WithDetail("total", total.String())
	}
	return out, nil
}

// GenerateBill raises the bill for a visit. The total is computed from the
// line items. Billing does not depend on the visit's status.
func (s *Service) GenerateBill(ctx context.Context, visitID, patientID uuid.UUID, items []LineItem) (_ *Bill, err error) {
	ctx, span := tracer.Start(ctx, "billing.GenerateBill")
	span.SetAttributes(attribute.String("visit.id", visitID.String()))
	defer func() { endSpan(span, err) }()

	v, err := s.visits.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.PatientID != patientID {
		return nil, ErrPatientMismatch.WithID(visitID.String()).WithDetail("patient_id", patientID.String())
	}
	items, err = normalizeItems(items)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByVisit(ctx, visitID); err == nil {
		return nil, ErrAlreadyExists.WithID(visitID.String())
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	b := &Bill{
		ID:            uuid.New(),
		VisitID:       visitID,
		PatientID:     patientID,
		LineItems:     items,
		TotalAmount:   Total(items),
		PaymentStatus: PaymentPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("bill_id", b.ID.String()).
		Str("visit_id", visitID.String()).
		Str("total", b.TotalAmount.StringFixed(amountScale)).
		Msg("bill generated")
	return b, nil
}

// MarkPaid moves a pending bill to paid. Payments are not reversible.
func (s *Service) MarkPaid(ctx context.Context, billID uuid.UUID) (_ *Bill, err error) {
	ctx, span := tracer.Start(ctx, "billing.MarkPaid")
	span.SetAttributes(attribute.String("bill.id", billID.String()))
	defer func() { endSpan(span, err) }()

	ok, err := s.repo.MarkPaid(ctx, billID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	b, err := s.repo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyPaid.WithID(billID.String())
	}
	return b, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByVisit(ctx context.Context, visitID uuid.UUID) (*Bill, error) {
	return s.repo.GetByVisit(ctx, visitID)
}

// ListByVisitIDs returns bills keyed by visit id; unbilled visits are absent.
func (s *Service) ListByVisitIDs(ctx context.Context, visitIDs []uuid.UUID) (map[uuid.UUID]*Bill, error) {
	return s.repo.ListByVisitIDs(ctx, visitIDs)
}
