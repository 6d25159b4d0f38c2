package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"caixa_scrooper/identity"
	"caixa_scrooper/models"
)

// SQLiteStore keeps the local run history: one row per run, its log lines,
// and every record as it is extracted.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		uuid TEXT NOT NULL,
		site_id TEXT,
		region TEXT,
		locality TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		links_found INTEGER DEFAULT 0,
		records INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0,
		error_message TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id INTEGER,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE TABLE IF NOT EXISTS property_records (
		id INTEGER PRIMARY KEY,
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		link TEXT,
		data JSON,
		scraped_at DATETIME,
		FOREIGN KEY (run_id) REFERENCES scrape_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_records_run ON property_records(run_id, position);
	CREATE INDEX IF NOT EXISTS idx_records_fingerprint ON property_records(fingerprint);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO scrape_runs (uuid, site_id, region, locality, started_at, status,
			links_found, records, errors_count, error_message)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0, '')`,
		run.UUID, run.SiteID, run.Region, run.Locality, run.StartedAt.UTC(), run.Status)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	var finished any
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, links_found = ?,
			records = ?, errors_count = ?, error_message = ?
		WHERE id = ?`,
		finished, run.Status, run.LinksFound, run.Records,
		run.ErrorsCount, run.ErrorMessage, run.ID)
	return err
}

func (s *SQLiteStore) Log(runID *int64, level models.LogLevel, message, siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, message, siteID)
	return err
}

// SaveRecord checkpoints one extracted record. position is the record's
// index in the run's result set.
func (s *SQLiteStore) SaveRecord(runID int64, position int, rec *models.PropertyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO property_records (run_id, position, fingerprint, link, data, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, position, identity.Fingerprint(rec), rec.Link, string(data), time.Now())
	return err
}

// RecordsForRun returns a run's records in extraction order.
func (s *SQLiteStore) RecordsForRun(runID int64) (models.ResultSet, error) {
	rows, err := s.db.Query(`
		SELECT data FROM property_records WHERE run_id = ? ORDER BY position, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := models.ResultSet{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec models.PropertyRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const runColumns = `id, uuid, COALESCE(site_id, ''), COALESCE(region, ''), COALESCE(locality, ''),
	started_at, finished_at, status, links_found, records, errors_count, COALESCE(error_message, '')`

func scanRun(scan func(dest ...any) error) (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	var finished sql.NullTime
	if err := scan(&run.ID, &run.UUID, &run.SiteID, &run.Region, &run.Locality,
		&run.StartedAt, &finished, &run.Status, &run.LinksFound, &run.Records,
		&run.ErrorsCount, &run.ErrorMessage); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

func (s *SQLiteStore) GetRun(id int64) (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM scrape_runs WHERE id = ?`, id)
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// RecentRuns lists runs newest first.
func (s *SQLiteStore) RecentRuns(limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM scrape_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.ScrapeRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) LogsForRun(runID int64) ([]models.ScrapeLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, message, COALESCE(site_id, '')
		FROM scrape_logs WHERE run_id = ? ORDER BY timestamp, id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ScrapeLog
	for rows.Next() {
		var l models.ScrapeLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &l.Message, &l.SiteID); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// MarkStaleRuns fails runs left in the running state by a crashed process.
// Only runs started more than olderThan ago are touched, so a run another
// process is still working on keeps its state. Start times are stored in
// UTC, which keeps the comparison a plain string order.
func (s *SQLiteStore) MarkStaleRuns(olderThan time.Duration) (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(`
		UPDATE scrape_runs SET status = ?, error_message = 'interrupted', finished_at = ?
		WHERE status = ? AND started_at < ?`,
		models.RunStatusFailed, now, models.RunStatusRunning, now.Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
