package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Scores outside this range are rejected on write.
const (
	minScore = 1
	maxScore = 10
)

// Store wraps a SQLite database with methods for factors, daily records,
// settings, and the job queue.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "emotrack.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Single connection: all reads and writes are serialized, and an
	// in-memory database stays the same database across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Factors ---

const factorColumns = `id, name, sort_order, is_custom, is_active, created_at`

func scanFactor(row rowScanner) (Factor, error) {
	var f Factor
	var custom, active int
	var createdAt string
	if err := row.Scan(&f.ID, &f.Name, &f.SortOrder, &custom, &active, &createdAt); err != nil {
		return Factor{}, err
	}
	f.IsCustom = custom != 0
	f.IsActive = active != 0
	t, err := parseTime("created_at", createdAt)
	if err != nil {
		return Factor{}, err
	}
	f.CreatedAt = t
	return f, nil
}

// ListFactors returns every factor ordered by sort_order, ties by insertion order.
func (s *Store) ListFactors() ([]Factor, error) {
	rows, err := s.db.Query(`SELECT ` + factorColumns + ` FROM factors ORDER BY sort_order ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Factor
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

func (s *Store) GetFactor(id string) (Factor, error) {
	f, err := scanFactor(s.db.QueryRow(`SELECT `+factorColumns+` FROM factors WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Factor{}, ErrNotFound
	}
	if err != nil {
		return Factor{}, err
	}
	return f, nil
}

func (s *Store) InsertFactor(f Factor) error {
	_, err := s.db.Exec(`
		INSERT INTO factors (id, name, sort_order, is_custom, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.SortOrder, boolToInt(f.IsCustom), boolToInt(f.IsActive), formatTime(f.CreatedAt),
	)
	return err
}

// UpdateFactor writes the mutable columns of f (name, order, active flag).
func (s *Store) UpdateFactor(f Factor) error {
	res, err := s.db.Exec(`UPDATE factors SET name = ?, sort_order = ?, is_active = ? WHERE id = ?`,
		f.Name, f.SortOrder, boolToInt(f.IsActive), f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFactor(id string) error {
	res, err := s.db.Exec(`DELETE FROM factors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedFactors inserts factors if the table is empty and flagKey has never
// been set, then sets flagKey. It reports whether anything was inserted.
// The flag makes seeding happen at most once per database.
func (s *Store) SeedFactors(factors []Factor, flagKey string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	var flagged int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM settings WHERE key = ?`, flagKey).Scan(&flagged); err != nil {
		return false, fmt.Errorf("checking seed flag: %w", err)
	}
	if flagged > 0 {
		return false, nil
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM factors`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting factors: %w", err)
	}

	seeded := false
	if count == 0 {
		for _, f := range factors {
			if _, err := tx.Exec(`
				INSERT INTO factors (id, name, sort_order, is_custom, is_active, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				f.ID, f.Name, f.SortOrder, boolToInt(f.IsCustom), boolToInt(f.IsActive), formatTime(f.CreatedAt),
			); err != nil {
				return false, fmt.Errorf("inserting factor %q: %w", f.Name, err)
			}
		}
		seeded = len(factors) > 0
	}

	now := formatTime(time.Now())
	if _, err := tx.Exec(`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)`, flagKey, now, now); err != nil {
		return false, fmt.Errorf("setting seed flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing seed: %w", err)
	}
	return seeded, nil
}

// --- Daily records ---

const recordColumns = `id, day, scores, notes, created_at, updated_at`

func scanRecord(row rowScanner) (DayRecord, error) {
	var r DayRecord
	var scores, createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.Day, &scores, &r.Notes, &createdAt, &updatedAt); err != nil {
		return DayRecord{}, err
	}
	r.Scores = make(map[string]int)
	if scores != "" {
		if err := json.Unmarshal([]byte(scores), &r.Scores); err != nil {
			return DayRecord{}, fmt.Errorf("decoding scores for record %s: %w", r.ID, err)
		}
	}
	var err error
	if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return DayRecord{}, err
	}
	if r.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return DayRecord{}, err
	}
	return r, nil
}

func encodeScores(scores map[string]int) (string, error) {
	for factorID, v := range scores {
		if v < minScore || v > maxScore {
			return "", fmt.Errorf("score %d for factor %s outside [%d,%d]", v, factorID, minScore, maxScore)
		}
	}
	if scores == nil {
		return "{}", nil
	}
	b, err := json.Marshal(scores)
	if err != nil {
		return "", fmt.Errorf("encoding scores: %w", err)
	}
	return string(b), nil
}

func (s *Store) GetRecordByDay(day string) (DayRecord, error) {
	r, err := scanRecord(s.db.QueryRow(`SELECT `+recordColumns+` FROM daily_records WHERE day = ?`, day))
	if err == sql.ErrNoRows {
		return DayRecord{}, ErrNotFound
	}
	if err != nil {
		return DayRecord{}, err
	}
	return r, nil
}

// CreateRecordIfAbsent inserts r unless a record for r.Day already exists.
func (s *Store) CreateRecordIfAbsent(r DayRecord) error {
	scores, err := encodeScores(r.Scores)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO daily_records (id, day, scores, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(day) DO NOTHING`,
		r.ID, r.Day, scores, r.Notes, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

// SaveRecord inserts r or overwrites the record with the same ID.
func (s *Store) SaveRecord(r DayRecord) error {
	scores, err := encodeScores(r.Scores)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO daily_records (id, day, scores, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			day = excluded.day,
			scores = excluded.scores,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		r.ID, r.Day, scores, r.Notes, formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

// ListRecords returns all records, most recent day first.
func (s *Store) ListRecords() ([]DayRecord, error) {
	return s.queryRecords(`SELECT ` + recordColumns + ` FROM daily_records ORDER BY day DESC`)
}

// ListRecordsBetween returns records whose day key lies in [fromDay, toDay],
// most recent day first.
func (s *Store) ListRecordsBetween(fromDay, toDay string) ([]DayRecord, error) {
	return s.queryRecords(`SELECT `+recordColumns+` FROM daily_records
		WHERE day >= ? AND day <= ? ORDER BY day DESC`, fromDay, toDay)
}

func (s *Store) queryRecords(query string, args ...any) ([]DayRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DayRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) DeleteRecord(id string) error {
	res, err := s.db.Exec(`DELETE FROM daily_records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Settings ---

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, formatTime(time.Now()),
	)
	return err
}

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// --- Jobs ---

const jobColumns = `id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at, last_error`

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var runAfter, createdAt, updatedAt string
	var lastError sql.NullString
	if err := row.Scan(&j.ID, &j.Type, &j.PayloadJSON, &j.Status, &j.Attempts, &j.MaxAttempts,
		&runAfter, &createdAt, &updatedAt, &lastError); err != nil {
		return Job{}, err
	}
	j.LastError = lastError.String
	var err error
	if j.RunAfter, err = time.Parse(time.RFC3339, runAfter); err != nil {
		return Job{}, fmt.Errorf("parsing run_after for job %s: %w", j.ID, err)
	}
	if j.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Job{}, fmt.Errorf("parsing created_at for job %s: %w", j.ID, err)
	}
	if j.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Job{}, fmt.Errorf("parsing updated_at for job %s: %w", j.ID, err)
	}
	return j, nil
}

func insertJob(exec interface {
	Exec(query string, args ...any) (sql.Result, error)
}, job Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	runAfter := now
	if !job.RunAfter.IsZero() {
		runAfter = job.RunAfter.UTC().Format(time.RFC3339)
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	_, err := exec.Exec(`
		INSERT INTO jobs (id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', 0, ?, ?, ?, ?)`,
		job.ID, job.Type, job.PayloadJSON, maxAttempts, runAfter, now, now,
	)
	return err
}

// ReplacePendingJobs atomically deletes every pending job of jobType and
// enqueues job in its place.
func (s *Store) ReplacePendingJobs(jobType string, job Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM jobs WHERE type = ? AND status = 'pending'`, jobType); err != nil {
		return fmt.Errorf("deleting pending %s jobs: %w", jobType, err)
	}
	if err := insertJob(tx, job); err != nil {
		return fmt.Errorf("enqueueing %s job: %w", jobType, err)
	}
	return tx.Commit()
}

// CancelPendingJobs deletes pending jobs of jobType and returns how many were removed.
func (s *Store) CancelPendingJobs(jobType string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM jobs WHERE type = ? AND status = 'pending'`, jobType)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// NextPendingJob returns the earliest pending job of jobType, or nil if none.
func (s *Store) NextPendingJob(jobType string) (*Job, error) {
	j, err := scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs
		WHERE type = ? AND status = 'pending'
		ORDER BY run_after ASC, created_at ASC LIMIT 1`, jobType))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) ClaimNextJob(types []string) (*Job, error) {
	if len(types) == 0 {
		return nil, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	placeholders := strings.Repeat(",?", len(types)-1)
	query := `SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = 'pending' AND run_after <= ? AND type IN (?` + placeholders + `)
		ORDER BY run_after ASC, created_at ASC
		LIMIT 1`

	args := make([]any, 0, len(types)+1)
	args = append(args, now)
	for _, t := range types {
		args = append(args, t)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}

	j, err := scanJob(tx.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, nil
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("selecting next job: %w", err)
	}

	res, err := tx.Exec(`UPDATE jobs SET status = 'running', updated_at = ? WHERE id = ? AND status = 'pending'`, now, j.ID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checking updated job rows: %w", err)
	}
	if n != 1 {
		tx.Rollback()
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	j.Status = JobRunning
	if j.UpdatedAt, err = time.Parse(time.RFC3339, now); err != nil {
		return nil, fmt.Errorf("parsing updated_at for job %s: %w", j.ID, err)
	}
	return &j, nil
}

func (s *Store) CompleteJob(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE jobs SET status = 'completed', updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailJob records a failed attempt. The job is retried with exponential
// backoff until max_attempts is reached, then marked failed.
func (s *Store) FailJob(id string, errMsg string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning fail transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	err = tx.QueryRow(`SELECT attempts, max_attempts FROM jobs WHERE id = ?`, id).Scan(&attempts, &maxAttempts)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	attempts++

	if attempts >= maxAttempts {
		_, err = tx.Exec(`UPDATE jobs SET status = 'failed', attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, now.Format(time.RFC3339), id)
	} else {
		backoff := time.Duration(math.Pow(2, float64(attempts))) * time.Second
		runAfter := now.Add(backoff)
		_, err = tx.Exec(`UPDATE jobs SET status = 'pending', attempts = ?, last_error = ?, run_after = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, runAfter.Format(time.RFC3339), now.Format(time.RFC3339), id)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetJob returns a job by ID.
func (s *Store) GetJob(id string) (Job, error) {
	j, err := scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	return j, nil
}
