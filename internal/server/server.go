package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/engine"
	"github.com/najanadhirahh/job-planner-portal/internal/telemetry"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"past_date"`
	Message string         `json:"message" example:"cannot schedule on a past date"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the planner API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema validation failures are client errors, not domain rejections.
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	router.Method(http.MethodGet, "/metrics", telemetry.Handler())
	hcfg := huma.DefaultConfig("Job Planner API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerLines(group, cfg.Engine)
	registerJobs(group, cfg.Engine)
	registerDrop(group, cfg.Engine)
	registerCalendar(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, engine.ErrMalformedPayload):
		return newAPIError(http.StatusBadRequest, "malformed_payload", err.Error(), nil)
	case errors.Is(err, engine.ErrPastDate):
		return newAPIError(http.StatusUnprocessableEntity, "past_date", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "required") ||
		strings.Contains(lowered, "unknown") || strings.Contains(lowered, "already exists"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Job Planner API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerLines(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-lines",
		Method:      http.MethodGet,
		Path:        "/lines",
		Summary:     "List production lines",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.ProductionLine `json:"body"`
	}, error) {
		return &struct {
			Body []domain.ProductionLine `json:"body"`
		}{Body: e.Lines.List()}, nil
	})
}

func registerJobs(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "List jobs",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"unfirmed,firmed,"`
		Line   string `query:"line"`
	}) (*struct {
		Body []JobResponse `json:"body"`
	}, error) {
		jobs, err := e.Jobs(ctx, input.Status, input.Line)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []JobResponse `json:"body"`
		}{Body: mapJobs(jobs)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-job",
		Method:        http.MethodPost,
		Path:          "/jobs",
		Summary:       "Create job",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateJobRequest `json:"body"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		job, err := e.CreateJob(ctx, engine.JobCreateOptions{
			ID:             input.Body.ID,
			Name:           input.Body.Name,
			Customer:       input.Body.Customer,
			RequiredHours:  input.Body.RequiredHours,
			PriorityLevel:  input.Body.PriorityLevel,
			Deadline:       input.Body.Deadline,
			ProductionLine: input.Body.ProductionLine,
			ScheduledDate:  input.Body.ScheduledDate,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(job)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-job",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get job",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		job, err := e.Job(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(job)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "schedule-job",
		Method:      http.MethodPost,
		Path:        "/jobs/{id}/schedule",
		Summary:     "Firm a job onto a calendar day",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID   string             `path:"id"`
		Body ScheduleJobRequest `json:"body"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		if input.Body.Date == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "date is required", nil)
		}
		job, err := e.ScheduleJob(ctx, input.ID, input.Body.Date)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(job)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unschedule-job",
		Method:      http.MethodPost,
		Path:        "/jobs/{id}/unschedule",
		Summary:     "Return a job to the unscheduled pool",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body JobResponse `json:"body"`
	}, error) {
		job, err := e.UnscheduleJob(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body JobResponse `json:"body"`
		}{Body: jobResponse(job)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-jobs",
		Method:      http.MethodPost,
		Path:        "/jobs/reset",
		Summary:     "Restore the seed job collection",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []JobResponse `json:"body"`
	}, error) {
		jobs, err := e.ResetJobs(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []JobResponse `json:"body"`
		}{Body: mapJobs(jobs)}, nil
	})
}

func registerDrop(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "apply-drop",
		Method:      http.MethodPost,
		Path:        "/drop",
		Summary:     "Resolve a drag-and-drop gesture",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body DropRequest `json:"body"`
	}) (*struct {
		Body DropResponse `json:"body"`
	}, error) {
		out, err := e.ApplyDrop(ctx, input.Body.Payload, input.Body.Target)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DropResponse `json:"body"`
		}{Body: dropResponse(out)}, nil
	})
}

func registerCalendar(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "month-calendar",
		Method:      http.MethodGet,
		Path:        "/calendar/{month}",
		Summary:     "42-cell month grid with per-day capacity",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Month string `path:"month" example:"2025-10"`
		Line  string `query:"line"`
	}) (*struct {
		Body []engine.MonthCell `json:"body"`
	}, error) {
		cells, err := e.MonthView(ctx, input.Month, input.Line)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []engine.MonthCell `json:"body"`
		}{Body: cells}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "day-capacity",
		Method:      http.MethodGet,
		Path:        "/capacity/{date}",
		Summary:     "Capacity aggregate for one day",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Date string `path:"date" example:"2025-10-29"`
		Line string `query:"line"`
	}) (*struct {
		Body DayCapacityResponse `json:"body"`
	}, error) {
		day, err := e.DayCapacity(ctx, input.Date, input.Line)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DayCapacityResponse `json:"body"`
		}{Body: dayCapacityResponse(day)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "month-summary",
		Method:      http.MethodGet,
		Path:        "/summary/{month}",
		Summary:     "Month aggregate",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Month string `path:"month" example:"2025-10"`
		Line  string `query:"line"`
	}) (*struct {
		Body domain.MonthSummary `json:"body"`
	}, error) {
		sum, err := e.MonthSummary(ctx, input.Month, input.Line)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.MonthSummary `json:"body"`
		}{Body: sum}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent planner events",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"20"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		recs, err := e.Events.Tail(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(recs)}, nil
	})
}
