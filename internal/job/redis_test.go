package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisRepository(t *testing.T) *RedisRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client)
}

func TestRedisRepository_SaveAndFind(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()

	j := New(testRequest())
	j.AppendLog("generation started")

	if err := repo.Save(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != j.ID {
		t.Errorf("expected ID %s, got %s", j.ID, found.ID)
	}
	if found.Status != StatusQueued {
		t.Errorf("expected status %s, got %s", StatusQueued, found.Status)
	}
	if len(found.Logs) != 1 || found.Logs[0] != "generation started" {
		t.Errorf("expected logs to survive, got %v", found.Logs)
	}
}

func TestRedisRepository_FindByID_NotFound(t *testing.T) {
	repo := newTestRedisRepository(t)

	_, err := repo.FindByID(context.Background(), "job-1-aaaaaaaaaaaa")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestRedisRepository_List(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()

	first := New(testRequest())
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	second := New(testRequest())
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	third := New(testRequest())

	for _, j := range []*Job{second, third, first} {
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
	if jobs[0].ID != first.ID || jobs[2].ID != third.ID {
		t.Errorf("expected jobs oldest first, got %s, %s, %s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestRedisRepository_List_Empty(t *testing.T) {
	repo := newTestRedisRepository(t)

	jobs, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

func TestRedisRepository_Delete(t *testing.T) {
	repo := newTestRedisRepository(t)
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
