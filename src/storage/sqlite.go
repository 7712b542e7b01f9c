package storage

import (
	"database/sql"
	"fmt"
	"time"

	"rdm-dashboard/src/logger"
	"rdm-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}

	// One connection: SQLite allows a single writer
	db.SetMaxOpenConns(1)
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64 and unix millis, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS fetch_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence INTEGER,
			fetch_trigger TEXT,
			outcome TEXT,
			message TEXT,
			orders INTEGER,
			agents INTEGER,
			duration_ms INTEGER,
			created_at INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create fetch_records: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS action_records (
			id TEXT PRIMARY KEY,
			kind TEXT,
			entity_id INTEGER,
			value TEXT,
			success INTEGER,
			message TEXT,
			created_at INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create action_records: %w", err)
	}

	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_fetch_records_created ON fetch_records (created_at)`); err != nil {
		return fmt.Errorf("failed to index fetch_records: %w", err)
	}
	if _, err := d.DB.Exec(`CREATE INDEX IF NOT EXISTS idx_action_records_created ON action_records (created_at)`); err != nil {
		return fmt.Errorf("failed to index action_records: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveFetchRecord(rec models.MFetchRecord) error {
	_, err := d.DB.Exec(`
		INSERT INTO fetch_records (sequence, fetch_trigger, outcome, message, orders, agents, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, int64(rec.Sequence), rec.Trigger, rec.Outcome, rec.Message, rec.Orders, rec.Agents, rec.DurationMs, toMillis(rec.CreatedAt))
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveActionRecord(rec models.MActionRecord) error {
	_, err := d.DB.Exec(`
		INSERT INTO action_records (id, kind, entity_id, value, success, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			success = excluded.success,
			message = excluded.message,
			created_at = excluded.created_at
	`, rec.ID, string(rec.Kind), rec.EntityID, rec.Value, rec.Success, rec.Message, toMillis(rec.CreatedAt))
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) RecentFetches(limit int) ([]models.MFetchRecord, error) {
	rows, err := d.DB.Query(`
		SELECT sequence, fetch_trigger, outcome, message, orders, agents, duration_ms, created_at
		FROM fetch_records ORDER BY created_at DESC, id DESC LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFetchRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) RecentActions(limit int) ([]models.MActionRecord, error) {
	rows, err := d.DB.Query(`
		SELECT id, kind, entity_id, value, success, message, created_at
		FROM action_records ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActionRecords(rows)
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := toMillis(time.Now().UTC().AddDate(0, 0, -retentionDays))

	d.Logger.Debug("Cleaning up records older than %d days (created_at < %d)", retentionDays, cutoff)

	for _, table := range auditTables {
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE created_at < ?", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
