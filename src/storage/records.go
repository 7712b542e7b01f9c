package storage

import (
	"database/sql"
	"fmt"
	"time"

	"rdm-dashboard/src/helpers"
	"rdm-dashboard/src/interfaces"
	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

var auditTables = []string{"fetch_records", "action_records"}

// -----------------------------------------------------------------------------

// NewDatabase picks the audit store for cfg.Storage.DBType. The store is not
// initialized yet.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(cfg, log.Named("PostgresDB"))
	case "sqlite", "":
		return NewAsyncSQLiteDB(cfg, log.Named("SQLiteDB"))
	}
	return nil, &helpers.ConfigurationError{DashboardError: helpers.DashboardError{
		Message: fmt.Sprintf("unsupported database type: %s", cfg.Storage.DBType),
	}}
}

// -----------------------------------------------------------------------------

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// -----------------------------------------------------------------------------

func scanFetchRecords(rows *sql.Rows) ([]models.MFetchRecord, error) {
	var out []models.MFetchRecord
	for rows.Next() {
		var (
			r       models.MFetchRecord
			seq     int64
			message sql.NullString
			created int64
		)
		if err := rows.Scan(&seq, &r.Trigger, &r.Outcome, &message, &r.Orders, &r.Agents, &r.DurationMs, &created); err != nil {
			return nil, err
		}
		r.Sequence = uint64(seq)
		r.Message = message.String
		r.CreatedAt = fromMillis(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanActionRecords(rows *sql.Rows) ([]models.MActionRecord, error) {
	var out []models.MActionRecord
	for rows.Next() {
		var (
			r       models.MActionRecord
			kind    string
			message sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &kind, &r.EntityID, &r.Value, &r.Success, &message, &created); err != nil {
			return nil, err
		}
		r.Kind = models.ActionKind(kind)
		r.Message = message.String
		r.CreatedAt = fromMillis(created)
		out = append(out, r)
	}
	return out, rows.Err()
}
