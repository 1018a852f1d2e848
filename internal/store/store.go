package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/najanadhirahh/job-planner-portal/internal/domain"
)

// Slot is the single named record holding the serialized job collection.
const Slot = "job_planner_jobs"

var ErrNotFound = errors.New("not found")

// Store persists the whole job collection as one JSON payload under Slot.
// Every mutation replaces the entire collection.
type Store struct {
	DB   *sql.DB
	Seed []domain.Job
	Now  func() time.Time
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Load returns the persisted job collection. A missing or unreadable slot
// falls back to a copy of the seed jobs; the slot itself is left untouched
// until the next write.
func (s Store) Load(ctx context.Context) ([]domain.Job, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT payload_json FROM job_sets WHERE slot=?`, Slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return s.seedCopy(), nil
	}
	if err != nil {
		return nil, err
	}
	var jobs []domain.Job
	if err := json.Unmarshal([]byte(payload), &jobs); err != nil {
		// Corrupt payload: recover with the seed rather than failing.
		return s.seedCopy(), nil
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	return jobs, nil
}

// ReplaceAll overwrites the slot with the given collection.
func (s Store) ReplaceAll(ctx context.Context, jobs []domain.Job) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := s.ReplaceAllTx(ctx, tx, jobs); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAllTx overwrites the slot inside the caller's transaction.
func (s Store) ReplaceAllTx(ctx context.Context, tx *sql.Tx, jobs []domain.Job) error {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	payload, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("marshal jobs: %w", err)
	}
	now := s.now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `INSERT INTO job_sets(slot,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(slot) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`, Slot, string(payload), now)
	return err
}

// ResetTx restores the slot to the seed jobs inside the caller's transaction
// and returns the restored collection.
func (s Store) ResetTx(ctx context.Context, tx *sql.Tx) ([]domain.Job, error) {
	jobs := s.seedCopy()
	if err := s.ReplaceAllTx(ctx, tx, jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s Store) seedCopy() []domain.Job {
	out := make([]domain.Job, len(s.Seed))
	copy(out, s.Seed)
	for i := range out {
		if s.Seed[i].Deadline != nil {
			d := *s.Seed[i].Deadline
			out[i].Deadline = &d
		}
		if s.Seed[i].ScheduledDate != nil {
			d := *s.Seed[i].ScheduledDate
			out[i].ScheduledDate = &d
		}
	}
	return out
}
