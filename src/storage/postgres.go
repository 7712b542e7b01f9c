package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	schema := schemaName(cfg.Name)
	if schema == "" {
		// Fall back to the executable name
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable name: %w", err)
		}
		schema = schemaName(strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe)))
	}

	return &PostgresDB{
		Config: cfg,
		Schema: schema,
		Logger: log,
	}, nil
}

// schemaName keeps letters, digits and underscores, lower-cased.
func schemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) table(name string) string {
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			sequence BIGINT,
			fetch_trigger TEXT,
			outcome TEXT,
			message TEXT,
			orders INTEGER,
			agents INTEGER,
			duration_ms BIGINT,
			created_at BIGINT
		);
	`, d.table("fetch_records"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create fetch_records: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			kind TEXT,
			entity_id BIGINT,
			value TEXT,
			success BOOLEAN,
			message TEXT,
			created_at BIGINT
		);
	`, d.table("action_records"))
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create action_records: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveFetchRecord(rec models.MFetchRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (sequence, fetch_trigger, outcome, message, orders, agents, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.table("fetch_records"))
	_, err := d.DB.Exec(query, int64(rec.Sequence), rec.Trigger, rec.Outcome, rec.Message, rec.Orders, rec.Agents, rec.DurationMs, toMillis(rec.CreatedAt))
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveActionRecord(rec models.MActionRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, kind, entity_id, value, success, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			success = EXCLUDED.success,
			message = EXCLUDED.message,
			created_at = EXCLUDED.created_at
	`, d.table("action_records"))
	_, err := d.DB.Exec(query, rec.ID, string(rec.Kind), rec.EntityID, rec.Value, rec.Success, rec.Message, toMillis(rec.CreatedAt))
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RecentFetches(limit int) ([]models.MFetchRecord, error) {
	query := fmt.Sprintf(`
		SELECT sequence, fetch_trigger, outcome, message, orders, agents, duration_ms, created_at
		FROM %s ORDER BY created_at DESC, id DESC LIMIT $1
	`, d.table("fetch_records"))
	rows, err := d.DB.Query(query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFetchRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RecentActions(limit int) ([]models.MActionRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, kind, entity_id, value, success, message, created_at
		FROM %s ORDER BY created_at DESC LIMIT $1
	`, d.table("action_records"))
	rows, err := d.DB.Query(query, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActionRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := toMillis(time.Now().UTC().AddDate(0, 0, -retentionDays))

	d.Logger.Debug("Cleaning up records older than %d days (created_at < %d)", retentionDays, cutoff)

	for _, name := range auditTables {
		if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, d.table(name)), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", name, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
