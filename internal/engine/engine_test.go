package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/najanadhirahh/job-planner-portal/internal/config"
	"github.com/najanadhirahh/job-planner-portal/internal/db"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/engine"
	"github.com/najanadhirahh/job-planner-portal/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	// Fixed clock: 2025-10-15 keeps the seed's firmed dates in the future.
	eng.Now = func() time.Time { return time.Date(2025, 10, 15, 10, 0, 0, 0, time.Local) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func strptr(s string) *string { return &s }

func TestScheduleFirmsJob(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.Engine.ScheduleJob(env.Ctx, "job-001", "2025-10-20")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if job.Status != domain.StatusFirmed || job.ScheduledDate == nil || *job.ScheduledDate != "2025-10-20" {
		t.Fatalf("job not firmed on target date: %+v", job)
	}
	got, err := env.Engine.Job(env.Ctx, "job-001")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Firmed() {
		t.Fatalf("persisted job not firmed: %+v", got)
	}
}

func TestScheduleUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.ScheduleJob(env.Ctx, "job-999", "2025-10-20")
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnscheduleReturnsJobToPool(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.Engine.UnscheduleJob(env.Ctx, "job-004")
	if err != nil {
		t.Fatalf("unschedule: %v", err)
	}
	if job.Status != domain.StatusUnfirmed || job.ScheduledDate != nil {
		t.Fatalf("job still firmed: %+v", job)
	}
}

func TestStatusDateInvariantHoldsAfterMutations(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.Engine.ScheduleJob(env.Ctx, "job-001", "2025-10-20")
	_, _ = env.Engine.ScheduleJob(env.Ctx, "job-001", "2025-10-22")
	_, _ = env.Engine.UnscheduleJob(env.Ctx, "job-004")
	jobs, err := env.Engine.Jobs(env.Ctx, "", "")
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range jobs {
		firmed := j.Status == domain.StatusFirmed
		hasDate := j.ScheduledDate != nil
		if firmed != hasDate {
			t.Fatalf("invariant broken for %s: status=%s date=%v", j.ID, j.Status, j.ScheduledDate)
		}
	}
}

func TestMutationTouchesOnlyTargetJob(t *testing.T) {
	env := newTestEnv(t)
	before, _ := env.Engine.Jobs(env.Ctx, "", "")
	_, err := env.Engine.ScheduleJob(env.Ctx, "job-002", "2025-10-21")
	if err != nil {
		t.Fatal(err)
	}
	after, _ := env.Engine.Jobs(env.Ctx, "", "")
	if len(before) != len(after) {
		t.Fatalf("collection size changed: %d -> %d", len(before), len(after))
	}
	for i := range after {
		if after[i].ID == "job-002" {
			continue
		}
		if after[i].Status != before[i].Status {
			t.Fatalf("job %s status changed as a side effect", after[i].ID)
		}
	}
}

func TestDropPoolToDaySchedules(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-001")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginPool},
		domain.DropTarget{Kind: domain.TargetDay, Date: "2025-10-20"})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !out.Applied || out.Transition != domain.TransitionScheduled {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if *out.Job.ScheduledDate != "2025-10-20" {
		t.Fatalf("wrong date: %+v", out.Job)
	}
}

func TestDropCalendarToDayMoves(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-004")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginCalendar, OriginalDate: job.ScheduledDate},
		domain.DropTarget{Kind: domain.TargetDay, Date: "2025-11-03"})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Transition != domain.TransitionMoved || *out.Job.ScheduledDate != "2025-11-03" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDropCalendarToPoolUnschedules(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-005")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginCalendar, OriginalDate: job.ScheduledDate},
		domain.DropTarget{Kind: domain.TargetPool})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Transition != domain.TransitionUnscheduled || out.Job.ScheduledDate != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestDropSameDayIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-004")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginCalendar, OriginalDate: job.ScheduledDate},
		domain.DropTarget{Kind: domain.TargetDay, Date: *job.ScheduledDate})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Applied || out.Transition != domain.TransitionNone {
		t.Fatalf("same-day drop should be a no-op: %+v", out)
	}
}

func TestDropPoolToPoolIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-001")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginPool},
		domain.DropTarget{Kind: domain.TargetPool})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Applied {
		t.Fatalf("pool-to-pool drop should not apply: %+v", out)
	}
}

func TestDropOnPastDateRejectedWithoutMutation(t *testing.T) {
	env := newTestEnv(t)
	before, _ := env.Engine.Jobs(env.Ctx, "", "")
	job, _ := env.Engine.Job(env.Ctx, "job-001")
	_, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginPool},
		domain.DropTarget{Kind: domain.TargetDay, Date: "2025-10-01"})
	if !errors.Is(err, engine.ErrPastDate) {
		t.Fatalf("expected ErrPastDate, got %v", err)
	}
	after, _ := env.Engine.Jobs(env.Ctx, "", "")
	for i := range after {
		if after[i].Status != before[i].Status {
			t.Fatalf("past-date drop mutated job %s", after[i].ID)
		}
	}
}

func TestDropOnTodayAllowed(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-001")
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginPool},
		domain.DropTarget{Kind: domain.TargetDay, Date: "2025-10-15"})
	if err != nil {
		t.Fatalf("today drop: %v", err)
	}
	if !out.Applied {
		t.Fatalf("today should be a legal target: %+v", out)
	}
}

func TestMalformedPayloadAbortsBeforeMutation(t *testing.T) {
	env := newTestEnv(t)
	before, _ := env.Engine.Jobs(env.Ctx, "", "")
	cases := []struct {
		name    string
		payload domain.DragPayload
		target  domain.DropTarget
	}{
		{"missing job id", domain.DragPayload{DraggedFrom: domain.OriginPool}, domain.DropTarget{Kind: domain.TargetDay, Date: "2025-10-20"}},
		{"unknown origin", domain.DragPayload{Job: before[0], DraggedFrom: "sidebar"}, domain.DropTarget{Kind: domain.TargetDay, Date: "2025-10-20"}},
		{"calendar without original date", domain.DragPayload{Job: before[0], DraggedFrom: domain.OriginCalendar}, domain.DropTarget{Kind: domain.TargetPool}},
		{"bad target date", domain.DragPayload{Job: before[0], DraggedFrom: domain.OriginPool}, domain.DropTarget{Kind: domain.TargetDay, Date: "20-10-2025"}},
		{"unknown target kind", domain.DragPayload{Job: before[0], DraggedFrom: domain.OriginPool}, domain.DropTarget{Kind: "week"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := env.Engine.ApplyDrop(env.Ctx, c.payload, c.target)
			if !errors.Is(err, engine.ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
	after, _ := env.Engine.Jobs(env.Ctx, "", "")
	for i := range after {
		if after[i].Status != before[i].Status {
			t.Fatalf("malformed drop mutated job %s", after[i].ID)
		}
	}
}

func TestDropIgnoresStalePayloadSnapshot(t *testing.T) {
	env := newTestEnv(t)
	job, _ := env.Engine.Job(env.Ctx, "job-004")
	// Another actor moves the job after the drag started.
	if _, err := env.Engine.ScheduleJob(env.Ctx, "job-004", "2025-11-10"); err != nil {
		t.Fatal(err)
	}
	out, err := env.Engine.ApplyDrop(env.Ctx,
		domain.DragPayload{Job: job, DraggedFrom: domain.OriginCalendar, OriginalDate: strptr("2025-10-29")},
		domain.DropTarget{Kind: domain.TargetDay, Date: "2025-11-12"})
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if out.Transition != domain.TransitionMoved || *out.Job.ScheduledDate != "2025-11-12" {
		t.Fatalf("stale snapshot mishandled: %+v", out)
	}
}

func TestCreateJobDefaultsAndValidation(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		Name:           "Bracket Run",
		Customer:       "MNO Corp",
		RequiredHours:  7.5,
		ProductionLine: "assembly",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == "" || job.PriorityLevel != domain.PriorityMedium || job.Status != domain.StatusUnfirmed {
		t.Fatalf("unexpected defaults: %+v", job)
	}
	if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "x", RequiredHours: 1, ProductionLine: "extrusion"}); err == nil {
		t.Fatal("expected unknown line error")
	}
	if _, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{Name: "x", RequiredHours: -1, ProductionLine: "assembly"}); err == nil {
		t.Fatal("expected hours validation error")
	}
}

func TestCreateJobWithScheduledDateFirms(t *testing.T) {
	env := newTestEnv(t)
	job, err := env.Engine.CreateJob(env.Ctx, engine.JobCreateOptions{
		Name:           "Rush Order",
		RequiredHours:  3,
		ProductionLine: "packaging",
		ScheduledDate:  "2025-10-20",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !job.Firmed() || *job.ScheduledDate != "2025-10-20" {
		t.Fatalf("job should be firmed: %+v", job)
	}
}

func TestResetRestoresSeedCollection(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.Engine.ScheduleJob(env.Ctx, "job-001", "2025-10-20")
	_, _ = env.Engine.UnscheduleJob(env.Ctx, "job-004")
	jobs, err := env.Engine.ResetJobs(env.Ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(jobs) != 5 {
		t.Fatalf("expected 5 seed jobs, got %d", len(jobs))
	}
	got, _ := env.Engine.Job(env.Ctx, "job-004")
	if !got.Firmed() || *got.ScheduledDate != "2025-10-29" {
		t.Fatalf("seed not restored: %+v", got)
	}
}

func TestMonthViewCapacities(t *testing.T) {
	env := newTestEnv(t)
	cells, err := env.Engine.MonthView(env.Ctx, "2025-10", domain.LineFilterAll)
	if err != nil {
		t.Fatalf("month view: %v", err)
	}
	if len(cells) != 42 {
		t.Fatalf("grid has %d cells, want 42", len(cells))
	}
	var found bool
	for _, c := range cells {
		if c.Key == "2025-10-29" {
			found = true
			if c.Capacity.ScheduledHours != 12.0 {
				t.Fatalf("2025-10-29 hours = %v, want 12", c.Capacity.ScheduledHours)
			}
			if len(c.Capacity.Jobs) != 1 || c.Capacity.Jobs[0].ID != "job-004" {
				t.Fatalf("unexpected day jobs: %+v", c.Capacity.Jobs)
			}
		}
	}
	if !found {
		t.Fatal("2025-10-29 missing from October grid")
	}
}

func TestMonthSummarySeedData(t *testing.T) {
	env := newTestEnv(t)
	sum, err := env.Engine.MonthSummary(env.Ctx, "2025-10", domain.LineFilterAll)
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalOrders != 2 {
		t.Fatalf("total orders = %d, want 2", sum.TotalOrders)
	}
	// job-004 (12.0) + job-005 (9.5) are firmed in October.
	if sum.ScheduledHours != 21.5 {
		t.Fatalf("scheduled hours = %v, want 21.5", sum.ScheduledHours)
	}
}

func TestJobsFilters(t *testing.T) {
	env := newTestEnv(t)
	unfirmed, err := env.Engine.Jobs(env.Ctx, domain.StatusUnfirmed, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(unfirmed) != 3 {
		t.Fatalf("unfirmed = %d, want 3", len(unfirmed))
	}
	packaging, err := env.Engine.Jobs(env.Ctx, "", "packaging")
	if err != nil {
		t.Fatal(err)
	}
	if len(packaging) != 1 || packaging[0].ID != "job-004" {
		t.Fatalf("packaging filter wrong: %+v", packaging)
	}
}
