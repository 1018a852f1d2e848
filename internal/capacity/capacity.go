// Package capacity aggregates scheduled hours against production-line
// capacity. All functions are pure over the job collection passed in.
package capacity

import (
	"math"

	"github.com/najanadhirahh/job-planner-portal/internal/config"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
)

// Utilization bands for display.
const (
	BandOK       = "ok"
	BandWarn     = "warn"
	BandOverload = "overload"
)

// Days used to scale a daily capacity into a monthly figure. Kept as a flat
// 30 regardless of the actual month length.
const monthScale = 30

// Lines is the production-line registry.
type Lines struct {
	lines []domain.ProductionLine
}

func NewLines(lines []domain.ProductionLine) Lines {
	return Lines{lines: lines}
}

func (l Lines) List() []domain.ProductionLine {
	out := make([]domain.ProductionLine, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l Lines) Find(id string) (domain.ProductionLine, bool) {
	for _, ln := range l.lines {
		if ln.ID == id {
			return ln, true
		}
	}
	return domain.ProductionLine{}, false
}

// DailyCapacity returns the capacity for a line id, or the fallback when
// the id is unknown or the filter is "all" (aggregate of every line).
func (l Lines) DailyCapacity(lineFilter string) float64 {
	if lineFilter == domain.LineFilterAll {
		return l.TotalDailyCapacity()
	}
	if ln, ok := l.Find(lineFilter); ok {
		return ln.DailyCapacity
	}
	return config.FallbackDailyCapacity
}

func (l Lines) TotalDailyCapacity() float64 {
	var total float64
	for _, ln := range l.lines {
		total += ln.DailyCapacity
	}
	if total == 0 {
		return config.FallbackDailyCapacity
	}
	return total
}

// JobsOn returns the firmed jobs scheduled on dateKey, optionally narrowed
// to one production line.
func JobsOn(jobs []domain.Job, dateKey, lineFilter string) []domain.Job {
	var out []domain.Job
	for _, j := range jobs {
		if !j.Firmed() || *j.ScheduledDate != dateKey {
			continue
		}
		if lineFilter != domain.LineFilterAll && j.ProductionLine != lineFilter {
			continue
		}
		out = append(out, j)
	}
	return out
}

// ComputeDayCapacity aggregates one calendar day. Utilization is rounded to
// the nearest percent and deliberately not clamped at 100; a zero capacity
// yields zero utilization rather than a division error.
func ComputeDayCapacity(jobs []domain.Job, lines Lines, dateKey, lineFilter string) domain.DayCapacity {
	dayJobs := JobsOn(jobs, dateKey, lineFilter)
	var hours float64
	for _, j := range dayJobs {
		hours += j.RequiredHours
	}
	total := lines.DailyCapacity(lineFilter)
	return domain.DayCapacity{
		Date:           dateKey,
		ScheduledHours: hours,
		TotalCapacity:  total,
		Utilization:    utilization(hours, total),
		Jobs:           dayJobs,
	}
}

// MonthSummary aggregates firmed work for the month identified by monthKey
// (YYYY-MM). TotalOrders counts every firmed job passing the line filter;
// hours are restricted to the month. Monthly capacity is the daily figure
// scaled by a flat 30 days.
func MonthSummary(jobs []domain.Job, lines Lines, monthKey, lineFilter string) domain.MonthSummary {
	prefix := monthKey + "-"
	var total int
	var hours float64
	for _, j := range jobs {
		if lineFilter != domain.LineFilterAll && j.ProductionLine != lineFilter {
			continue
		}
		if !j.Firmed() {
			continue
		}
		total++
		if len(*j.ScheduledDate) > len(prefix) && (*j.ScheduledDate)[:len(prefix)] == prefix {
			hours += j.RequiredHours
		}
	}
	monthly := lines.DailyCapacity(lineFilter) * monthScale
	return domain.MonthSummary{
		TotalOrders:     total,
		ScheduledHours:  hours,
		MonthlyCapacity: monthly,
		Utilization:     utilization(hours, monthly),
	}
}

// PriorityBand maps a priority level to the display bands, highest first.
func PriorityBand(priority string) string {
	switch priority {
	case domain.PriorityHigh:
		return BandOverload
	case domain.PriorityMedium:
		return BandWarn
	default:
		return BandOK
	}
}

// UtilizationBand maps a utilization percentage to a display band.
func UtilizationBand(pct int) string {
	switch {
	case pct <= 60:
		return BandOK
	case pct <= 85:
		return BandWarn
	default:
		return BandOverload
	}
}

func utilization(hours, capacity float64) int {
	if capacity == 0 {
		return 0
	}
	return int(math.Round(hours / capacity * 100))
}
