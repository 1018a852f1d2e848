package server

import (
	"github.com/najanadhirahh/job-planner-portal/internal/capacity"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/events"
)

type CreateJobRequest struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Customer       string  `json:"customer,omitempty"`
	RequiredHours  float64 `json:"required_hours"`
	PriorityLevel  string  `json:"priority_level,omitempty" enum:"high,medium,low,"`
	Deadline       string  `json:"deadline,omitempty" format:"date"`
	ProductionLine string  `json:"production_line"`
	ScheduledDate  string  `json:"scheduled_date,omitempty" format:"date"`
}

type ScheduleJobRequest struct {
	Date string `json:"date" format:"date"`
}

type DropRequest struct {
	Payload domain.DragPayload `json:"payload"`
	Target  domain.DropTarget  `json:"target"`
}

type JobResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Customer       string  `json:"customer,omitempty"`
	RequiredHours  float64 `json:"required_hours"`
	PriorityLevel  string  `json:"priority_level"`
	PriorityBand   string  `json:"priority_band"`
	Deadline       *string `json:"deadline,omitempty"`
	ProductionLine string  `json:"production_line"`
	Status         string  `json:"status"`
	ScheduledDate  *string `json:"scheduled_date,omitempty"`
}

type DropResponse struct {
	Applied    bool        `json:"applied"`
	Transition string      `json:"transition"`
	Job        JobResponse `json:"job"`
}

type DayCapacityResponse struct {
	Date           string        `json:"date"`
	ScheduledHours float64       `json:"scheduled_hours"`
	TotalCapacity  float64       `json:"total_capacity"`
	Utilization    int           `json:"utilization"`
	Band           string        `json:"band"`
	Jobs           []JobResponse `json:"jobs"`
}

type EventResponse struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	JobID   string `json:"job_id,omitempty"`
	Payload string `json:"payload"`
}

func jobResponse(j domain.Job) JobResponse {
	return JobResponse{
		ID:             j.ID,
		Name:           j.Name,
		Customer:       j.Customer,
		RequiredHours:  j.RequiredHours,
		PriorityLevel:  j.PriorityLevel,
		PriorityBand:   capacity.PriorityBand(j.PriorityLevel),
		Deadline:       j.Deadline,
		ProductionLine: j.ProductionLine,
		Status:         j.Status,
		ScheduledDate:  j.ScheduledDate,
	}
}

func mapJobs(jobs []domain.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobResponse(j))
	}
	return out
}

func dropResponse(out domain.DropOutcome) DropResponse {
	return DropResponse{
		Applied:    out.Applied,
		Transition: out.Transition,
		Job:        jobResponse(out.Job),
	}
}

func dayCapacityResponse(d domain.DayCapacity) DayCapacityResponse {
	return DayCapacityResponse{
		Date:           d.Date,
		ScheduledHours: d.ScheduledHours,
		TotalCapacity:  d.TotalCapacity,
		Utilization:    d.Utilization,
		Band:           capacity.UtilizationBand(d.Utilization),
		Jobs:           mapJobs(d.Jobs),
	}
}

func mapEvents(recs []events.Record) []EventResponse {
	out := make([]EventResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, EventResponse{ID: r.ID, TS: r.TS, Type: r.Type, JobID: r.JobID, Payload: r.Payload})
	}
	return out
}
