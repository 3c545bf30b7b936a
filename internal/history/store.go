package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users then need to delete the history database.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Outcome is the final disposition of one source file.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Record is one finished unit of work.
type Record struct {
	ID          int64
	SourcePath  string
	Outcome     Outcome
	Details     string
	Codec       string
	BitrateKbps int
	InputBytes  int64
	OutputBytes int64
	Duration    time.Duration
	FinishedAt  time.Time
}

// Stats aggregates the whole history.
type Stats struct {
	Completed  int
	Failed     int
	Skipped    int
	BytesIn    int64
	BytesOut   int64
	BytesSaved int64
}

// Store persists history records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Append inserts a record. FinishedAt defaults to now when zero.
func (s *Store) Append(ctx context.Context, record Record) error {
	finished := record.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO history (
            source_path, outcome, details, codec, bitrate_kbps,
            input_bytes, output_bytes, duration_seconds, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.SourcePath,
		string(record.Outcome),
		nullableString(record.Details),
		nullableString(record.Codec),
		record.BitrateKbps,
		record.InputBytes,
		record.OutputBytes,
		record.Duration.Seconds(),
		finished.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

const recordColumns = "id, source_path, outcome, details, codec, bitrate_kbps, input_bytes, output_bytes, duration_seconds, finished_at"

// List returns the most recent records, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM history ORDER BY finished_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// ListByPath returns every record for a source path, newest first.
func (s *Store) ListByPath(ctx context.Context, sourcePath string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM history WHERE source_path = ? ORDER BY finished_at DESC, id DESC`,
		sourcePath,
	)
	if err != nil {
		return nil, fmt.Errorf("list history by path: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats aggregates outcome counts and byte totals across all records.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(1), COALESCE(SUM(input_bytes), 0), COALESCE(SUM(output_bytes), 0)
         FROM history GROUP BY outcome`,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			outcome  string
			count    int
			bytesIn  int64
			bytesOut int64
		)
		if err := rows.Scan(&outcome, &count, &bytesIn, &bytesOut); err != nil {
			return Stats{}, err
		}
		switch Outcome(outcome) {
		case OutcomeCompleted:
			stats.Completed = count
			stats.BytesIn += bytesIn
			stats.BytesOut += bytesOut
		case OutcomeFailed:
			stats.Failed = count
		case OutcomeSkipped:
			stats.Skipped = count
		}
	}
	stats.BytesSaved = stats.BytesIn - stats.BytesOut
	return stats, rows.Err()
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var (
		record      Record
		outcome     string
		details     sql.NullString
		codec       sql.NullString
		durationSec float64
		finishedRaw string
	)
	if err := rows.Scan(
		&record.ID,
		&record.SourcePath,
		&outcome,
		&details,
		&codec,
		&record.BitrateKbps,
		&record.InputBytes,
		&record.OutputBytes,
		&durationSec,
		&finishedRaw,
	); err != nil {
		return Record{}, fmt.Errorf("scan history record: %w", err)
	}
	record.Outcome = Outcome(outcome)
	record.Details = details.String
	record.Codec = codec.String
	record.Duration = time.Duration(durationSec * float64(time.Second))
	if finished, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
		record.FinishedAt = finished
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
