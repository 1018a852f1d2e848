package app

import (
	"database/sql"
	"fmt"

	"github.com/najanadhirahh/job-planner-portal/internal/config"
	"github.com/najanadhirahh/job-planner-portal/internal/db"
	"github.com/najanadhirahh/job-planner-portal/internal/engine"
	"github.com/najanadhirahh/job-planner-portal/internal/migrate"
)

// Open resolves the workspace config (jobplanner.yml or built-in default),
// opens the SQLite database, runs migrations, and returns a ready engine.
// The caller owns the connection.
func Open(workspace string) (engine.Engine, *sql.DB, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("load config: %w", err)
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return engine.New(conn, cfg), conn, nil
}
