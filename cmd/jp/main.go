package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/najanadhirahh/job-planner-portal/internal/app"
	"github.com/najanadhirahh/job-planner-portal/internal/calendar"
	"github.com/najanadhirahh/job-planner-portal/internal/db"
	"github.com/najanadhirahh/job-planner-portal/internal/domain"
	"github.com/najanadhirahh/job-planner-portal/internal/engine"
	"github.com/najanadhirahh/job-planner-portal/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "jp",
	Short: "Job planner CLI",
	Long: `jp schedules production jobs onto a capacity calendar.
Jobs start unfirmed in a pool; scheduling one onto a day firms it and the
day's utilization is recomputed from the production-line capacity registry.
Moving a firmed job between days or back to the pool is a single atomic
transition recorded in the event log ('jp log tail').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("JOBPLANNER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("line", "all", "production line filter")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("line", rootCmd.PersistentFlags().Lookup("line"))
}

func registerCommands() {
	rootCmd.AddCommand(lineCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(dropCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(capacityCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func lineCmd() *cobra.Command {
	line := &cobra.Command{Use: "line", Short: "Production lines"}
	line.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List production lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				lines := e.Lines.List()
				if viper.GetBool("json") {
					return printJSON(lines)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Daily Capacity"})
				for _, l := range lines {
					tw.AppendRow(table.Row{l.ID, l.Name, fmt.Sprintf("%.1fh", l.DailyCapacity)})
				}
				tw.Render()
				return nil
			})
		},
	})
	return line
}

func jobCmd() *cobra.Command {
	job := &cobra.Command{Use: "job", Short: "Manage jobs"}
	job.AddCommand(jobListCmd())
	job.AddCommand(jobShowCmd())
	job.AddCommand(jobCreateCmd())
	job.AddCommand(jobScheduleCmd())
	job.AddCommand(jobUnscheduleCmd())
	job.AddCommand(jobResetCmd())
	return job
}

func jobListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				jobs, err := e.Jobs(ctx, status, viper.GetString("line"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(jobs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Customer", "Hours", "Priority", "Line", "Status", "Scheduled"})
				for _, j := range jobs {
					scheduled := ""
					if j.ScheduledDate != nil {
						scheduled = *j.ScheduledDate
					}
					tw.AppendRow(table.Row{j.ID, j.Name, j.Customer, fmt.Sprintf("%.1f", j.RequiredHours), j.PriorityLevel, j.ProductionLine, j.Status, scheduled})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (unfirmed, firmed)")
	return cmd
}

func jobShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.Job(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(j)
			})
		},
	}
}

func jobCreateCmd() *cobra.Command {
	var opts engine.JobCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.CreateJob(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(j)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "job id (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "job name")
	cmd.Flags().StringVar(&opts.Customer, "customer", "", "customer")
	cmd.Flags().Float64Var(&opts.RequiredHours, "hours", 0, "required hours")
	cmd.Flags().StringVar(&opts.PriorityLevel, "priority", "", "priority (high, medium, low)")
	cmd.Flags().StringVar(&opts.Deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.ProductionLine, "production-line", "", "production line id")
	cmd.Flags().StringVar(&opts.ScheduledDate, "date", "", "schedule immediately on this date")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("hours")
	_ = cmd.MarkFlagRequired("production-line")
	return cmd
}

func jobScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id> <date>",
		Short: "Firm a job onto a calendar day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.ScheduleJob(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(j)
			})
		},
	}
}

func jobUnscheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule <id>",
		Short: "Return a job to the unscheduled pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				j, err := e.UnscheduleJob(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(j)
			})
		},
	}
}

func jobResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the seed job collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				jobs, err := e.ResetJobs(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("restored %d jobs\n", len(jobs))
				return nil
			})
		},
	}
}

func dropCmd() *cobra.Command {
	var from, originalDate, toDate string
	var toPool bool
	cmd := &cobra.Command{
		Use:   "drop <job-id>",
		Short: "Resolve a drag-and-drop gesture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toPool == (toDate != "") {
				return fmt.Errorf("exactly one of --to-date or --to-pool is required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				job, err := e.Job(ctx, args[0])
				if err != nil {
					return err
				}
				payload := domain.DragPayload{Job: job, DraggedFrom: from}
				if originalDate != "" {
					payload.OriginalDate = &originalDate
				} else if from == domain.OriginCalendar {
					payload.OriginalDate = job.ScheduledDate
				}
				target := domain.DropTarget{Kind: domain.TargetPool}
				if !toPool {
					target = domain.DropTarget{Kind: domain.TargetDay, Date: toDate}
				}
				out, err := e.ApplyDrop(ctx, payload, target)
				if err != nil {
					return err
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", domain.OriginPool, "drag origin (pool, calendar)")
	cmd.Flags().StringVar(&originalDate, "original-date", "", "origin date for calendar drags")
	cmd.Flags().StringVar(&toDate, "to-date", "", "target calendar day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&toPool, "to-pool", false, "drop onto the unscheduled pool")
	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar [month]",
		Short: "Show the month grid with per-day utilization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := monthArg(args)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cells, err := e.MonthView(ctx, month, viper.GetString("line"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cells)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle(month)
				tw.AppendHeader(table.Row{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"})
				for week := 0; week < 6; week++ {
					row := make(table.Row, 7)
					for d := 0; d < 7; d++ {
						c := cells[week*7+d]
						cell := fmt.Sprintf("%2d", c.DayOfMonth)
						if !c.CurrentMonth {
							cell = "."
						} else if c.Capacity.ScheduledHours > 0 {
							cell = fmt.Sprintf("%2d %.1fh %d%%", c.DayOfMonth, c.Capacity.ScheduledHours, c.Capacity.Utilization)
						}
						row[d] = cell
					}
					tw.AppendRow(row)
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func capacityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capacity <date>",
		Short: "Capacity aggregate for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				day, err := e.DayCapacity(ctx, args[0], viper.GetString("line"))
				if err != nil {
					return err
				}
				return printJSON(day)
			})
		},
	}
}

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [month]",
		Short: "Month aggregate",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month := monthArg(args)
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				sum, err := e.MonthSummary(ctx, month, viper.GetString("line"))
				if err != nil {
					return err
				}
				return printJSON(sum)
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Planner event log"}
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				recs, err := e.Events.Tail(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(recs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Job", "Payload"})
				for _, r := range recs {
					tw.AppendRow(table.Row{r.ID, r.TS, r.Type, r.JobID, r.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "max events")
	log.AddCommand(tail)
	return log
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			e, conn, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("JOBPLANNER_JWT_SECRET")}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Job Planner API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func monthArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return calendar.MonthKey(time.Now())
}

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, conn, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, e)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
