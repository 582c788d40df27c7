package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
)

//go:embed schema/*.sql
var schemaFS embed.FS

func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	start := time.Now()
	script, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		return fmt.Errorf("read postgres schema: %w", err)
	}

	_, err = pool.Exec(ctx, string(script))
	return HandleExecError(constants.DriverPostgres, err, "migrate schema", start)
}

func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	start := time.Now()
	script, err := schemaFS.ReadFile("schema/sqlite.sql")
	if err != nil {
		return fmt.Errorf("read sqlite schema: %w", err)
	}

	for _, stmt := range splitStatements(string(script)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return HandleExecError(constants.DriverSQLite, err, "migrate schema", start)
		}
	}

	MeasureQueryDuration(constants.DriverSQLite, "migrate schema", start)
	return nil
}

func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
