package sequence

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/mariyask04/Clinic-Management/internal/platform/sqlitedb"
)

func TestSQLiteRepo_ConcurrentAllocationsAreContiguous(t *testing.T) {
	sqlDB, err := sqlitedb.Open(filepath.Join(t.TempDir(), "seq.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()

	a := NewAllocator(NewSQLiteRepo(sqlDB))
	ctx := context.Background()

	// Seed a prior value so the run starts mid-stream.
	for i := 0; i < 5; i++ {
		if _, err := a.NextSequence(ctx, "token"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	prior, err := a.Peek(ctx, "token")
	if err != nil {
		t.Fatalf("peek: %v", err)
	}

	const n = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		got  []int64
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := a.NextSequence(ctx, "token")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			got = append(got, v)
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	for i, v := range got {
		if want := prior + int64(i) + 1; v != want {
			t.Fatalf("position %d: expected %d, got %d", i, want, v)
		}
	}
}

func TestSQLiteRepo_CountersAreIndependent(t *testing.T) {
	sqlDB, err := sqlitedb.Open(filepath.Join(t.TempDir(), "seq.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()

	repo := NewSQLiteRepo(sqlDB)
	ctx := context.Background()
	a, _ := repo.Increment(ctx, "a", 0)
	b, _ := repo.Increment(ctx, "b", 99)
	a2, _ := repo.Increment(ctx, "a", 0)
	if a != 1 || a2 != 2 || b != 100 {
		t.Errorf("unexpected values a=%d a2=%d b=%d", a, a2, b)
	}
	if _, ok, _ := repo.Current(ctx, "missing"); ok {
		t.Error("missing counter must report not found")
	}
}
