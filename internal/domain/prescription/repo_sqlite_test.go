package prescription

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mariyask04/Clinic-Management/internal/domain/patient"
	"github.com/mariyask04/Clinic-Management/internal/domain/sequence"
	"github.com/mariyask04/Clinic-Management/internal/domain/visit"
	"github.com/mariyask04/Clinic-Management/internal/platform/apperr"
	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

var clinicDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type sqliteFixture struct {
	ctx    context.Context
	db     *sql.DB
	visits *visit.Service
	svc    *Service
	repo   Repository
}

func newSQLiteFixture(t *testing.T) *sqliteFixture {
	t.Helper()
	sqlDB, err := sqlitedb.Open(filepath.Join(t.TempDir(), "rx.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	visits := visit.NewService(visit.NewSQLiteRepo(sqlDB), patient.NewSQLiteRepo(sqlDB),
		sequence.NewAllocator(sequence.NewSQLiteRepo(sqlDB)))
	repo := NewSQLiteRepo(sqlDB)
	svc := NewService(repo, visits, visits)
	svc.SetTransactor(sqlitedb.NewTxRunner(sqlDB))

	return &sqliteFixture{ctx: context.Background(), db: sqlDB, visits: visits, svc: svc, repo: repo}
}

// consulting seeds a patient and moves a fresh visit into consultation.
func (f *sqliteFixture) consulting(t *testing.T) *visit.Visit {
	t.Helper()
	p := &patient.Patient{FullName: "Ravi Kumar"}
	if err := patient.Seed(f.ctx, f.db, p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	v, _, err := f.visits.OpenVisit(f.ctx, p.ID, clinicDay)
	if err != nil {
		t.Fatalf("open visit: %v", err)
	}
	v, err = f.visits.Transition(f.ctx, v.ID, visit.StatusInConsultation, visit.RoleDoctor)
	if err != nil {
		t.Fatalf("start consultation: %v", err)
	}
	return v
}

func TestSQLite_CreatePrescriptionCompletesVisit(t *testing.T) {
	f := newSQLiteFixture(t)
	v := f.consulting(t)

	follow := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	d := details
	d.FollowUpDate = &follow
	rx, err := f.svc.CreatePrescription(f.ctx, v.ID, v.PatientID, "dr-1", d)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.repo.GetByVisit(f.ctx, v.ID)
	if err != nil {
		t.Fatalf("get by visit: %v", err)
	}
	if got.ID != rx.ID || got.Diagnosis != "Viral fever" || len(got.Medicines) != 1 || got.Medicines[0].Dosage != "500mg" {
		t.Errorf("unexpected stored prescription: %+v", got)
	}
	if got.FollowUpDate == nil || !got.FollowUpDate.Equal(follow) {
		t.Errorf("expected follow-up %v, got %v", follow, got.FollowUpDate)
	}

	after, err := f.visits.GetVisit(f.ctx, v.ID)
	if err != nil {
		t.Fatalf("get visit: %v", err)
	}
	if after.Status != visit.StatusCompleted {
		t.Errorf("expected completed, got %s", after.Status)
	}

	listed, err := f.repo.ListByVisitIDs(f.ctx, []uuid.UUID{v.ID, uuid.New()})
	if err != nil || len(listed) != 1 || listed[v.ID] == nil {
		t.Errorf("expected one listed prescription, got %v (err %v)", listed, err)
	}
}

func TestSQLite_ConcurrentPrescriptionsWriteOnce(t *testing.T) {
	f := newSQLiteFixture(t)
	v := f.consulting(t)

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreatePrescription(f.ctx, v.ID, v.PatientID, "dr-1", details)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.IsKind(err, apperr.Conflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", n-1, ok, conflicts)
	}
}

func TestSQLite_DeniedCompletionRollsBack(t *testing.T) {
	f := newSQLiteFixture(t)
	v := f.consulting(t)
	f.visits.SetPolicy(visit.PolicyFunc(func(_ visit.Role, _, to visit.Status) bool {
		return to != visit.StatusCompleted
	}))

	_, err := f.svc.CreatePrescription(f.ctx, v.ID, v.PatientID, "dr-1", details)
	if !errors.Is(err, visit.ErrTransitionNotPermitted) {
		t.Fatalf("expected transition denial, got %v", err)
	}
	if _, err := f.repo.GetByVisit(f.ctx, v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected prescription rolled back, got %v", err)
	}
	after, _ := f.visits.GetVisit(f.ctx, v.ID)
	if after.Status != visit.StatusInConsultation {
		t.Errorf("visit must stay in consultation, got %s", after.Status)
	}
}

func TestSQLite_DuplicateInsertIsConflict(t *testing.T) {
	f := newSQLiteFixture(t)
	v := f.consulting(t)

	first := &Prescription{ID: uuid.New(), VisitID: v.ID, PatientID: v.PatientID, AuthorID: "dr-1", Diagnosis: "a", CreatedAt: time.Now()}
	if err := f.repo.Create(f.ctx, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second := &Prescription{ID: uuid.New(), VisitID: v.ID, PatientID: v.PatientID, AuthorID: "dr-1", Diagnosis: "b", CreatedAt: time.Now()}
	if err := f.repo.Create(f.ctx, second); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
}
