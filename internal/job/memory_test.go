package job

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepository_SaveClones(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	j := New(testRequest())
	if err := repo.Save(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's job after Save must not change the record.
	j.AppendLog("after save")

	found, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found.Logs) != 0 {
		t.Errorf("expected stored record unchanged, got logs %v", found.Logs)
	}

	// Mutating the returned record must not change the store either.
	found.AppendLog("after find")
	again, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.Logs) != 0 {
		t.Errorf("expected stored record unchanged, got logs %v", again.Logs)
	}
}

func TestMemoryRepository_FindByID_NotFound(t *testing.T) {
	repo := NewMemoryRepository()

	if _, err := repo.FindByID(context.Background(), "job-1-abc"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestMemoryRepository_ListOrdersOldestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first := New(testRequest())
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	second := New(testRequest())
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	third := New(testRequest())

	// Save out of order; List must sort by creation time like the
	// persistent repositories do.
	for _, j := range []*Job{third, first, second} {
		if err := repo.Save(ctx, j); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	jobs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID || jobs[1].ID != second.ID || jobs[2].ID != third.ID {
		t.Errorf("expected jobs oldest first, got %s, %s, %s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	j := New(testRequest())
	_ = repo.Save(ctx, j)

	if err := repo.Delete(ctx, j.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.FindByID(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound deleting twice, got %v", err)
	}
}
