package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/najanadhirahh/job-planner-portal/internal/config"
	"github.com/najanadhirahh/job-planner-portal/internal/db"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/migrate"
	"github.com/najanadhirahh/job-planner-portal/internal/store"
)

func newTestStore(t *testing.T) (store.Store, *sql.DB) {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := store.Store{
		DB:   conn,
		Seed: config.Default().Seed(),
		Now:  func() time.Time { return time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC) },
	}
	return s, conn
}

func TestLoadMissingSlotReturnsSeed(t *testing.T) {
	s, _ := newTestStore(t)
	jobs, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected 5 seed jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-001" || jobs[0].Status != domain.StatusUnfirmed {
		t.Fatalf("unexpected first seed job: %+v", jobs[0])
	}
	if jobs[3].ScheduledDate == nil || *jobs[3].ScheduledDate != "2025-10-29" {
		t.Fatalf("job-004 should be firmed on 2025-10-29: %+v", jobs[3])
	}
}

func TestReplaceAllRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	jobs, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	date := "2025-10-20"
	jobs[0].Status = domain.StatusFirmed
	jobs[0].ScheduledDate = &date
	if err := s.ReplaceAll(ctx, jobs); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ScheduledDate == nil || *got[0].ScheduledDate != date {
		t.Fatalf("scheduled date not persisted: %+v", got[0])
	}
	if len(got) != len(jobs) {
		t.Fatalf("collection size changed: %d != %d", len(got), len(jobs))
	}
}

func TestLoadCorruptPayloadFallsBackToSeed(t *testing.T) {
	s, conn := newTestStore(t)
	ctx := context.Background()
	_, err := conn.ExecContext(ctx, `INSERT INTO job_sets(slot,payload_json,updated_at) VALUES (?,?,?)`,
		store.Slot, `{"not":"an array`, "2025-10-15T12:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load should recover: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected seed fallback, got %d jobs", len(jobs))
	}
}

func TestSeedCopyIsIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	jobs, _ := s.Load(ctx)
	jobs[3].Status = domain.StatusUnfirmed
	*jobs[3].ScheduledDate = "1999-01-01"
	again, _ := s.Load(ctx)
	if again[3].Status != domain.StatusFirmed || *again[3].ScheduledDate != "2025-10-29" {
		t.Fatalf("seed mutated through returned slice: %+v", again[3])
	}
}

func TestResetRestoresSeed(t *testing.T) {
	s, conn := newTestStore(t)
	ctx := context.Background()
	if err := s.ReplaceAll(ctx, []domain.Job{}); err != nil {
		t.Fatal(err)
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	jobs, err := s.ResetTx(ctx, tx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected 5 jobs after reset, got %d", len(jobs))
	}
	got, _ := s.Load(ctx)
	if len(got) != 5 {
		t.Fatalf("reset not persisted, got %d jobs", len(got))
	}
}
