package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/resq112/core/model"
)

// SQLiteStore persists audit entries to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// ts holds nanoseconds so range filters agree with the JSONL backends.
	schema := `CREATE TABLE IF NOT EXISTS dispatch_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        resource_type TEXT,
        source_city TEXT,
        target_city TEXT,
        entry TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the entry to the database.
func (s *SQLiteStore) Append(ctx context.Context, entry model.DispatchLogEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatch_logs (ts, resource_type, source_city, target_city, entry) VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp.UnixNano(), entry.Type.String(), entry.SourceCity, entry.TargetCity, string(b))
	return err
}

// Query returns entries matching q in timestamp order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.DispatchLogEntry, error) {
	var args []any
	query := `SELECT entry FROM dispatch_logs WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Type != "" {
		t, ok := model.ResourceTypeFromString(q.Type)
		if !ok {
			return nil, fmt.Errorf("unknown resource type %q", q.Type)
		}
		query += ` AND resource_type = ?`
		args = append(args, t.String())
	}
	if q.SourceCity != "" {
		query += ` AND source_city = ?`
		args = append(args, q.SourceCity)
	}
	if q.TargetCity != "" {
		query += ` AND target_city = ?`
		args = append(args, q.TargetCity)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.DispatchLogEntry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e model.DispatchLogEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
