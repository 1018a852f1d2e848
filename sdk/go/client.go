// Package jobplannersdk is a minimal typed client for the Job Planner API.
package jobplannersdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a planner server.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Job mirrors the API job model.
type Job struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Customer       string  `json:"customer,omitempty"`
	RequiredHours  float64 `json:"required_hours"`
	PriorityLevel  string  `json:"priority_level"`
	Deadline       *string `json:"deadline,omitempty"`
	ProductionLine string  `json:"production_line"`
	Status         string  `json:"status"`
	ScheduledDate  *string `json:"scheduled_date,omitempty"`
}

// DayCapacity mirrors the per-day aggregate.
type DayCapacity struct {
	Date           string  `json:"date"`
	ScheduledHours float64 `json:"scheduled_hours"`
	TotalCapacity  float64 `json:"total_capacity"`
	Utilization    int     `json:"utilization"`
	Band           string  `json:"band"`
	Jobs           []Job   `json:"jobs"`
}

// MonthSummary mirrors the month aggregate.
type MonthSummary struct {
	TotalOrders     int     `json:"total_orders"`
	ScheduledHours  float64 `json:"scheduled_hours"`
	MonthlyCapacity float64 `json:"monthly_capacity"`
	Utilization     int     `json:"utilization"`
}

// DropOutcome mirrors the drop response.
type DropOutcome struct {
	Applied    bool   `json:"applied"`
	Transition string `json:"transition"`
	Job        Job    `json:"job"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Jobs lists jobs, optionally filtered by status and line.
func (c *Client) Jobs(ctx context.Context, status, line string) ([]Job, error) {
	endpoint := "v1/jobs"
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if line != "" {
		q.Set("line", line)
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Job
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Job fetches one job.
func (c *Client) Job(ctx context.Context, id string) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodGet, "v1/jobs/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Schedule firms a job onto a day.
func (c *Client) Schedule(ctx context.Context, id, date string) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodPost, "v1/jobs/"+url.PathEscape(id)+"/schedule", map[string]any{"date": date}, &resp)
	return resp, err
}

// Unschedule returns a job to the pool.
func (c *Client) Unschedule(ctx context.Context, id string) (Job, error) {
	var resp Job
	err := c.do(ctx, http.MethodPost, "v1/jobs/"+url.PathEscape(id)+"/unschedule", nil, &resp)
	return resp, err
}

// Drop resolves a drag-and-drop gesture server side.
func (c *Client) Drop(ctx context.Context, job Job, draggedFrom string, originalDate *string, targetKind, targetDate string) (DropOutcome, error) {
	payload := map[string]any{"job": job, "dragged_from": draggedFrom}
	if originalDate != nil {
		payload["original_date"] = *originalDate
	}
	target := map[string]any{"kind": targetKind}
	if targetDate != "" {
		target["date"] = targetDate
	}
	var resp DropOutcome
	err := c.do(ctx, http.MethodPost, "v1/drop", map[string]any{"payload": payload, "target": target}, &resp)
	return resp, err
}

// DayCapacity fetches one day's aggregate.
func (c *Client) DayCapacity(ctx context.Context, date, line string) (DayCapacity, error) {
	endpoint := "v1/capacity/" + url.PathEscape(date)
	if line != "" {
		endpoint += "?line=" + url.QueryEscape(line)
	}
	var resp DayCapacity
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// MonthSummary fetches one month's aggregate.
func (c *Client) MonthSummary(ctx context.Context, month, line string) (MonthSummary, error) {
	endpoint := "v1/summary/" + url.PathEscape(month)
	if line != "" {
		endpoint += "?line=" + url.QueryEscape(line)
	}
	var resp MonthSummary
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Reset restores the seed collection.
func (c *Client) Reset(ctx context.Context) ([]Job, error) {
	var resp []Job
	err := c.do(ctx, http.MethodPost, "v1/jobs/reset", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
