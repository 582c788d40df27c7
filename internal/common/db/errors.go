package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/storybooks/internal/observability/metrics"
)

func extractTableFromOperation(operation string) string {
	operation = strings.ToLower(operation)
	if strings.Contains(operation, "user") && !strings.Contains(operation, "stor") {
		return "users"
	}
	if strings.Contains(operation, "stor") {
		return "stories"
	}
	if strings.Contains(operation, "migrat") {
		return "schema"
	}
	return "unknown"
}

// IsNoRows reports whether err signals an empty result from either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

func HandleQueryError(driver string, err error, notFoundErr error, operation string, startTime time.Time) error {
	MeasureQueryDuration(driver, operation, startTime)

	if err == nil {
		return nil
	}
	if IsNoRows(err) {
		return notFoundErr
	}
	return countError(driver, err, operation)
}

func HandleExecError(driver string, err error, operation string, startTime time.Time) error {
	MeasureQueryDuration(driver, operation, startTime)

	if err == nil {
		return nil
	}
	return countError(driver, err, operation)
}

func MeasureQueryDuration(driver, operation string, startTime time.Time) {
	table := extractTableFromOperation(operation)
	metrics.DBQueryDurationSeconds.WithLabelValues(driver, operation, table).Observe(time.Since(startTime).Seconds())
}

func countError(driver string, err error, operation string) error {
	table := extractTableFromOperation(operation)
	errorType := fmt.Sprintf("%T", err)
	metrics.DBQueryErrors.WithLabelValues(driver, operation, table, errorType).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}
