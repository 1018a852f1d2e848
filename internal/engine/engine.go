package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/najanadhirahh/job-planner-portal/internal/calendar"
	"github.com/najanadhirahh/job-planner-portal/internal/capacity"
	"github.com/najanadhirahh/job-planner-portal/internal/config"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/events"
	"github.com/najanadhirahh/job-planner-portal/internal/store"
	"github.com/najanadhirahh/job-planner-portal/internal/telemetry"
)

var (
	ErrNotFound         = store.ErrNotFound
	ErrMalformedPayload = errors.New("malformed drag payload")
	ErrPastDate         = errors.New("cannot schedule on a past date")
)

// Engine applies scheduling transitions. Every mutation reloads the full
// collection, maps it, and replaces it in one transaction together with its
// event record.
type Engine struct {
	DB     *sql.DB
	Store  store.Store
	Lines  capacity.Lines
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Store:  store.Store{DB: db, Seed: cfg.Seed()},
		Lines:  capacity.NewLines(cfg.ProductionLines()),
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) todayKey() string {
	return calendar.DateKey(e.now())
}

// Jobs returns the full collection, optionally filtered by status and line.
func (e Engine) Jobs(ctx context.Context, status, line string) ([]domain.Job, error) {
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" && (line == "" || line == domain.LineFilterAll) {
		return jobs, nil
	}
	out := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		if status != "" && j.Status != status {
			continue
		}
		if line != "" && line != domain.LineFilterAll && j.ProductionLine != line {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

// Job returns one job by id.
func (e Engine) Job(ctx context.Context, id string) (domain.Job, error) {
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	for _, j := range jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return domain.Job{}, ErrNotFound
}

// JobCreateOptions are parameters for creating a job.
type JobCreateOptions struct {
	ID             string
	Name           string
	Customer       string
	RequiredHours  float64
	PriorityLevel  string
	Deadline       string
	ProductionLine string
	ScheduledDate  string
}

// CreateJob appends a new job to the collection. A scheduled date firms the
// job immediately; otherwise it lands in the unscheduled pool.
func (e Engine) CreateJob(ctx context.Context, opts JobCreateOptions) (domain.Job, error) {
	if opts.Name == "" {
		return domain.Job{}, errors.New("name is required")
	}
	if opts.RequiredHours <= 0 {
		return domain.Job{}, errors.New("required hours must be positive")
	}
	if opts.PriorityLevel == "" {
		opts.PriorityLevel = domain.PriorityMedium
	}
	switch opts.PriorityLevel {
	case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
	default:
		return domain.Job{}, fmt.Errorf("unknown priority %q", opts.PriorityLevel)
	}
	if opts.ProductionLine == "" {
		return domain.Job{}, errors.New("production line is required")
	}
	if _, ok := e.Lines.Find(opts.ProductionLine); !ok {
		return domain.Job{}, fmt.Errorf("unknown production line %q", opts.ProductionLine)
	}
	if opts.Deadline != "" {
		if _, err := calendar.ParseDateKey(opts.Deadline); err != nil {
			return domain.Job{}, err
		}
	}
	j := domain.Job{
		ID:             opts.ID,
		Name:           opts.Name,
		Customer:       opts.Customer,
		RequiredHours:  opts.RequiredHours,
		PriorityLevel:  opts.PriorityLevel,
		ProductionLine: opts.ProductionLine,
		Status:         domain.StatusUnfirmed,
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	if opts.Deadline != "" {
		d := opts.Deadline
		j.Deadline = &d
	}
	if opts.ScheduledDate != "" {
		if _, err := calendar.ParseDateKey(opts.ScheduledDate); err != nil {
			return domain.Job{}, err
		}
		d := opts.ScheduledDate
		j.Status = domain.StatusFirmed
		j.ScheduledDate = &d
	}

	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	for _, existing := range jobs {
		if existing.ID == j.ID {
			return domain.Job{}, fmt.Errorf("job %s already exists", j.ID)
		}
	}
	jobs = append(jobs, j)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Job{}, err
	}
	defer tx.Rollback()
	if err := e.Store.ReplaceAllTx(ctx, tx, jobs); err != nil {
		return domain.Job{}, err
	}
	if err := e.Events.Append(ctx, tx, "job.created", j.ID, events.EventPayload{"status": j.Status}); err != nil {
		return domain.Job{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Job{}, err
	}
	return j, nil
}

// ScheduleJob firms a job onto a calendar day. Scheduling an already firmed
// job moves it.
func (e Engine) ScheduleJob(ctx context.Context, jobID, dateKey string) (domain.Job, error) {
	if _, err := calendar.ParseDateKey(dateKey); err != nil {
		return domain.Job{}, err
	}
	transition := domain.TransitionScheduled
	updated, err := e.mutateJob(ctx, jobID, func(j *domain.Job) string {
		if j.Firmed() {
			transition = domain.TransitionMoved
		}
		d := dateKey
		j.Status = domain.StatusFirmed
		j.ScheduledDate = &d
		return "job." + transition
	})
	if err != nil {
		return domain.Job{}, err
	}
	return updated, nil
}

// UnscheduleJob returns a job to the unscheduled pool.
func (e Engine) UnscheduleJob(ctx context.Context, jobID string) (domain.Job, error) {
	return e.mutateJob(ctx, jobID, func(j *domain.Job) string {
		j.Status = domain.StatusUnfirmed
		j.ScheduledDate = nil
		return "job." + domain.TransitionUnscheduled
	})
}

// mutateJob loads the collection, applies fn to the one matching job, and
// replaces the whole collection plus an event in a single transaction. fn
// returns the event type to record.
func (e Engine) mutateJob(ctx context.Context, jobID string, fn func(*domain.Job) string) (domain.Job, error) {
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return domain.Job{}, err
	}
	idx := -1
	for i := range jobs {
		if jobs[i].ID == jobID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Job{}, ErrNotFound
	}
	evtType := fn(&jobs[idx])
	updated := jobs[idx]

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Job{}, err
	}
	defer tx.Rollback()
	if err := e.Store.ReplaceAllTx(ctx, tx, jobs); err != nil {
		return domain.Job{}, err
	}
	payload := events.EventPayload{"status": updated.Status}
	if updated.ScheduledDate != nil {
		payload["scheduled_date"] = *updated.ScheduledDate
	}
	if err := e.Events.Append(ctx, tx, evtType, updated.ID, payload); err != nil {
		return domain.Job{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Job{}, err
	}
	return updated, nil
}

// ApplyDrop resolves a drag-and-drop gesture against the current
// collection. Validation failures abort before any mutation; a past-date
// target is rejected as ErrPastDate with the collection untouched. Same-day
// and pool-to-pool drops are silent no-ops.
func (e Engine) ApplyDrop(ctx context.Context, payload domain.DragPayload, target domain.DropTarget) (domain.DropOutcome, error) {
	if err := validateDrop(payload, target); err != nil {
		telemetry.DropRejected(telemetry.ReasonMalformed)
		return domain.DropOutcome{}, err
	}
	// The payload's job snapshot can be stale; the engine trusts only the id
	// and re-reads the record before mutating.
	current, err := e.Job(ctx, payload.Job.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			telemetry.DropRejected(telemetry.ReasonUnknownJob)
		}
		return domain.DropOutcome{}, err
	}

	if target.Kind == domain.TargetDay && target.Date < e.todayKey() {
		telemetry.DropRejected(telemetry.ReasonPastDate)
		return domain.DropOutcome{Applied: false, Transition: domain.TransitionNone, Job: current}, ErrPastDate
	}

	transition := domain.TransitionNone
	switch {
	case payload.DraggedFrom == domain.OriginPool && target.Kind == domain.TargetDay:
		transition = domain.TransitionScheduled
	case payload.DraggedFrom == domain.OriginCalendar && target.Kind == domain.TargetDay:
		if current.Firmed() && *current.ScheduledDate == target.Date {
			transition = domain.TransitionNone
		} else {
			transition = domain.TransitionMoved
		}
	case payload.DraggedFrom == domain.OriginCalendar && target.Kind == domain.TargetPool:
		transition = domain.TransitionUnscheduled
	case payload.DraggedFrom == domain.OriginPool && target.Kind == domain.TargetPool:
		transition = domain.TransitionNone
	}

	if transition == domain.TransitionNone {
		return domain.DropOutcome{Applied: false, Transition: transition, Job: current}, nil
	}

	var updated domain.Job
	switch transition {
	case domain.TransitionUnscheduled:
		updated, err = e.UnscheduleJob(ctx, current.ID)
	default:
		updated, err = e.mutateJob(ctx, current.ID, func(j *domain.Job) string {
			d := target.Date
			j.Status = domain.StatusFirmed
			j.ScheduledDate = &d
			return "job." + transition
		})
	}
	if err != nil {
		return domain.DropOutcome{}, err
	}
	telemetry.DropApplied(transition)
	return domain.DropOutcome{Applied: true, Transition: transition, Job: updated}, nil
}

func validateDrop(payload domain.DragPayload, target domain.DropTarget) error {
	if payload.Job.ID == "" {
		return fmt.Errorf("%w: missing job id", ErrMalformedPayload)
	}
	switch payload.DraggedFrom {
	case domain.OriginPool:
	case domain.OriginCalendar:
		if payload.OriginalDate == nil {
			return fmt.Errorf("%w: calendar origin without original date", ErrMalformedPayload)
		}
		if _, err := calendar.ParseDateKey(*payload.OriginalDate); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	default:
		return fmt.Errorf("%w: unknown origin %q", ErrMalformedPayload, payload.DraggedFrom)
	}
	switch target.Kind {
	case domain.TargetPool:
	case domain.TargetDay:
		if _, err := calendar.ParseDateKey(target.Date); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	default:
		return fmt.Errorf("%w: unknown target %q", ErrMalformedPayload, target.Kind)
	}
	return nil
}

// ResetJobs restores the seed collection.
func (e Engine) ResetJobs(ctx context.Context) ([]domain.Job, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	jobs, err := e.Store.ResetTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := e.Events.Append(ctx, tx, "jobs.reset", "", events.EventPayload{"count": len(jobs)}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// DayCapacity aggregates one day against the registry.
func (e Engine) DayCapacity(ctx context.Context, dateKey, lineFilter string) (domain.DayCapacity, error) {
	if _, err := calendar.ParseDateKey(dateKey); err != nil {
		return domain.DayCapacity{}, err
	}
	if lineFilter == "" {
		lineFilter = domain.LineFilterAll
	}
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return domain.DayCapacity{}, err
	}
	return capacity.ComputeDayCapacity(jobs, e.Lines, dateKey, lineFilter), nil
}

// MonthCell is one calendar cell with its capacity aggregate.
type MonthCell struct {
	calendar.Day
	Capacity domain.DayCapacity `json:"capacity"`
	Band     string             `json:"band"`
}

// MonthView assembles the 42-cell grid for a month with per-day capacity.
func (e Engine) MonthView(ctx context.Context, monthKey, lineFilter string) ([]MonthCell, error) {
	ref, err := calendar.ParseMonthKey(monthKey)
	if err != nil {
		return nil, err
	}
	if lineFilter == "" {
		lineFilter = domain.LineFilterAll
	}
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	grid := calendar.MonthGrid(ref, e.now())
	cells := make([]MonthCell, 0, len(grid))
	for _, d := range grid {
		dc := capacity.ComputeDayCapacity(jobs, e.Lines, d.Key, lineFilter)
		cells = append(cells, MonthCell{Day: d, Capacity: dc, Band: capacity.UtilizationBand(dc.Utilization)})
	}
	return cells, nil
}

// MonthSummary aggregates the month identified by monthKey (YYYY-MM).
func (e Engine) MonthSummary(ctx context.Context, monthKey, lineFilter string) (domain.MonthSummary, error) {
	if _, err := calendar.ParseMonthKey(monthKey); err != nil {
		return domain.MonthSummary{}, err
	}
	if lineFilter == "" {
		lineFilter = domain.LineFilterAll
	}
	jobs, err := e.Store.Load(ctx)
	if err != nil {
		return domain.MonthSummary{}, err
	}
	return capacity.MonthSummary(jobs, e.Lines, monthKey, lineFilter), nil
}
