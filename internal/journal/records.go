package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status describes the outcome of a conversion run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Record is one journaled conversion outcome.
type Record struct {
	ID          int64
	TitleID     string
	Title       string
	SourcePath  string
	OutputPath  string
	OutputBytes int64
	Duration    time.Duration
	Status      Status
	Error       string
	CreatedAt   time.Time
}

// Append stores a new record and fills in its assigned ID and timestamp.
func (s *Store) Append(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is required")
	}
	if record.TitleID == "" {
		return errors.New("record title id is required")
	}
	if record.Status == "" {
		return errors.New("record status is required")
	}
	record.CreatedAt = time.Now().UTC()

	res, err := s.execWithRetry(ensureContext(ctx),
		`INSERT INTO conversions (title_id, title, source_path, output_path, output_bytes, duration_ms, status, error, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.TitleID,
		record.Title,
		record.SourcePath,
		record.OutputPath,
		record.OutputBytes,
		record.Duration.Milliseconds(),
		string(record.Status),
		record.Error,
		record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append journal record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read journal record id: %w", err)
	}
	record.ID = id
	return nil
}

// LastCompleted returns the most recent completed record for the title, or
// nil when the title has never completed.
func (s *Store) LastCompleted(ctx context.Context, titleID string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		selectColumns+` WHERE title_id = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		titleID, string(StatusCompleted),
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last completed: %w", err)
	}
	return record, nil
}

// List returns the most recent records, newest first. A limit of zero or
// less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal records: %w", err)
	}
	return records, nil
}

const selectColumns = `SELECT id, title_id, title, source_path, output_path, output_bytes, duration_ms, status, error, created_at FROM conversions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		record     Record
		durationMS int64
		status     string
		createdAt  string
	)
	if err := row.Scan(
		&record.ID,
		&record.TitleID,
		&record.Title,
		&record.SourcePath,
		&record.OutputPath,
		&record.OutputBytes,
		&durationMS,
		&status,
		&record.Error,
		&createdAt,
	); err != nil {
		return nil, err
	}
	record.Duration = time.Duration(durationMS) * time.Millisecond
	record.Status = Status(status)
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = ts
	}
	return &record, nil
}
