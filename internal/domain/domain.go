package domain

// Job status values. The biconditional Status == StatusFirmed <=>
// ScheduledDate != nil must hold after every mutation.
const (
	StatusUnfirmed = "unfirmed"
	StatusFirmed   = "firmed"
)

// Priority levels.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// LineFilterAll is the sentinel meaning "every production line".
const LineFilterAll = "all"

type ProductionLine struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	DailyCapacity float64 `json:"daily_capacity"`
}

type Job struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Customer       string  `json:"customer"`
	RequiredHours  float64 `json:"required_hours"`
	PriorityLevel  string  `json:"priority_level" enum:"high,medium,low"`
	Deadline       *string `json:"deadline,omitempty" format:"date"`
	ProductionLine string  `json:"production_line"`
	Status         string  `json:"status" enum:"unfirmed,firmed"`
	ScheduledDate  *string `json:"scheduled_date,omitempty" format:"date"`
}

// Firmed reports whether the job occupies capacity on a date.
func (j Job) Firmed() bool {
	return j.Status == StatusFirmed && j.ScheduledDate != nil
}

// DayCapacity is derived on demand and never stored.
type DayCapacity struct {
	Date           string  `json:"date" format:"date"`
	ScheduledHours float64 `json:"scheduled_hours"`
	TotalCapacity  float64 `json:"total_capacity"`
	Utilization    int     `json:"utilization"`
	Jobs           []Job   `json:"jobs"`
}

// MonthSummary aggregates firmed work against an explicitly scaled monthly
// capacity figure. It is deliberately separate from DayCapacity: the x30
// scaling never leaks into per-day numbers.
type MonthSummary struct {
	TotalOrders     int     `json:"total_orders"`
	ScheduledHours  float64 `json:"scheduled_hours"`
	MonthlyCapacity float64 `json:"monthly_capacity"`
	Utilization     int     `json:"utilization"`
}

// Drag provenance tags.
const (
	OriginPool     = "pool"
	OriginCalendar = "calendar"
)

// Drop target kinds.
const (
	TargetDay  = "day"
	TargetPool = "pool"
)

// DragPayload is the contract a drag gesture carries. The transition engine
// dispatches on DraggedFrom and the target alone; it never re-derives the
// origin from the store.
type DragPayload struct {
	Job          Job     `json:"job"`
	DraggedFrom  string  `json:"dragged_from" enum:"pool,calendar"`
	OriginalDate *string `json:"original_date,omitempty" format:"date"`
}

// DropTarget identifies where a payload was released: a calendar day (Date
// set) or the unscheduled pool.
type DropTarget struct {
	Kind string `json:"kind" enum:"day,pool"`
	Date string `json:"date,omitempty" format:"date"`
}

// DropOutcome reports what a drop did, for user feedback.
type DropOutcome struct {
	Applied    bool   `json:"applied"`
	Transition string `json:"transition,omitempty"`
	Job        Job    `json:"job"`
}

// Transition names reported in DropOutcome and event payloads.
const (
	TransitionScheduled   = "scheduled"
	TransitionMoved       = "moved"
	TransitionUnscheduled = "unscheduled"
	TransitionNone        = "none"
)

type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	JobID   string `json:"job_id,omitempty"`
	Payload string `json:"payload_json"`
}
