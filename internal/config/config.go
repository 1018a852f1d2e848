package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/najanadhirahh/job-planner-portal/internal/domain"
)

// FallbackDailyCapacity is used when a job references a production line the
// registry does not know. Callers recover with this constant instead of
// failing the capacity query.
const FallbackDailyCapacity = 17.5

// Config models jobplanner.yml: the production-line registry and the seed
// jobs substituted whenever the persisted slot is missing or unreadable.
type Config struct {
	Planner struct {
		ID string `yaml:"id"`
	} `yaml:"planner"`
	Lines    []LineConfig    `yaml:"lines"`
	SeedJobs []SeedJob       `yaml:"seed_jobs"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// WebhookConfig declares an endpoint notified of planner events. An empty
// Events list subscribes to every event type.
type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret,omitempty"`
	Events         []string `yaml:"events,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"`
}

type LineConfig struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	DailyCapacity float64 `yaml:"daily_capacity"`
}

type SeedJob struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Customer       string  `yaml:"customer"`
	RequiredHours  float64 `yaml:"required_hours"`
	PriorityLevel  string  `yaml:"priority_level"`
	Deadline       string  `yaml:"deadline,omitempty"`
	ProductionLine string  `yaml:"production_line"`
	Status         string  `yaml:"status"`
	ScheduledDate  string  `yaml:"scheduled_date,omitempty"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "jobplanner.yml")
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in config: the four production lines and the
// five sample jobs.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config template: %v", err))
	}
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Lines) == 0 {
		return fmt.Errorf("config.lines is required")
	}
	seen := map[string]bool{}
	for _, l := range c.Lines {
		if l.ID == "" {
			return fmt.Errorf("config.lines contains empty line id")
		}
		if seen[l.ID] {
			return fmt.Errorf("duplicate line id %s", l.ID)
		}
		seen[l.ID] = true
		if l.DailyCapacity <= 0 {
			return fmt.Errorf("line %s must have positive daily_capacity", l.ID)
		}
	}
	jobIDs := map[string]bool{}
	for _, j := range c.SeedJobs {
		if j.ID == "" {
			return fmt.Errorf("config.seed_jobs contains empty job id")
		}
		if jobIDs[j.ID] {
			return fmt.Errorf("duplicate seed job id %s", j.ID)
		}
		jobIDs[j.ID] = true
		if j.RequiredHours <= 0 {
			return fmt.Errorf("seed job %s must have positive required_hours", j.ID)
		}
		switch j.PriorityLevel {
		case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
		default:
			return fmt.Errorf("seed job %s has unknown priority %q", j.ID, j.PriorityLevel)
		}
		switch j.Status {
		case domain.StatusFirmed:
			if j.ScheduledDate == "" {
				return fmt.Errorf("seed job %s is firmed but has no scheduled_date", j.ID)
			}
		case domain.StatusUnfirmed:
			if j.ScheduledDate != "" {
				return fmt.Errorf("seed job %s is unfirmed but has a scheduled_date", j.ID)
			}
		default:
			return fmt.Errorf("seed job %s has unknown status %q", j.ID, j.Status)
		}
		if !seen[j.ProductionLine] {
			return fmt.Errorf("seed job %s references unknown line %s", j.ID, j.ProductionLine)
		}
	}
	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhook %d has no url", i)
		}
		if w.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout_seconds", i)
		}
	}
	return nil
}

// ProductionLines converts the line configs into the registry model.
func (c *Config) ProductionLines() []domain.ProductionLine {
	lines := make([]domain.ProductionLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, domain.ProductionLine{ID: l.ID, Name: l.Name, DailyCapacity: l.DailyCapacity})
	}
	return lines
}

// Seed converts the seed job configs into job records.
func (c *Config) Seed() []domain.Job {
	jobs := make([]domain.Job, 0, len(c.SeedJobs))
	for _, s := range c.SeedJobs {
		j := domain.Job{
			ID:             s.ID,
			Name:           s.Name,
			Customer:       s.Customer,
			RequiredHours:  s.RequiredHours,
			PriorityLevel:  s.PriorityLevel,
			ProductionLine: s.ProductionLine,
			Status:         s.Status,
		}
		if s.Deadline != "" {
			d := s.Deadline
			j.Deadline = &d
		}
		if s.ScheduledDate != "" {
			d := s.ScheduledDate
			j.ScheduledDate = &d
		}
		jobs = append(jobs, j)
	}
	return jobs
}

const defaultTemplate = `planner:
  id: job-planner

lines:
  - id: assorted
    name: Assorted
    daily_capacity: 17.5
  - id: packaging
    name: Packaging
    daily_capacity: 20.0
  - id: assembly
    name: Assembly
    daily_capacity: 15.0
  - id: quality
    name: Quality Control
    daily_capacity: 12.0

seed_jobs:
  - id: job-001
    name: Widget Assembly A
    customer: ABC Corp
    required_hours: 8.5
    priority_level: high
    deadline: "2025-11-30"
    production_line: assorted
    status: unfirmed
  - id: job-002
    name: Component Testing B
    customer: XYZ Industries
    required_hours: 6.0
    priority_level: medium
    deadline: "2025-12-05"
    production_line: assorted
    status: unfirmed
  - id: job-003
    name: Quality Inspection C
    customer: DEF Manufacturing
    required_hours: 4.5
    priority_level: low
    deadline: "2025-12-10"
    production_line: quality
    status: unfirmed
  - id: job-004
    name: Package Processing D
    customer: GHI Logistics
    required_hours: 12.0
    priority_level: high
    deadline: "2025-11-28"
    production_line: packaging
    status: firmed
    scheduled_date: "2025-10-29"
  - id: job-005
    name: Final Assembly E
    customer: JKL Systems
    required_hours: 9.5
    priority_level: medium
    deadline: "2025-12-01"
    production_line: assembly
    status: firmed
    scheduled_date: "2025-10-30"
`
