// Package journal keeps an append-only local record of policy operations
// (generate, amend, delete) in a sqlite file, independent of the main
// database, so operator actions can be reconstructed after the fact.
package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// Entry is one recorded operation.
type Entry struct {
	PolicyID string
	Op       string
	Detail   string
	Time     time.Time
}

type Journal struct {
	db *sql.DB
}

// Open creates the journal file and schema if needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS policy_ops(policy_id TEXT, op TEXT, detail TEXT, ts INTEGER); CREATE INDEX IF NOT EXISTS idx_policy_ops_policy ON policy_ops(policy_id);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Record appends one operation. Best effort: failures are dropped so the
// journal can never block or fail an API request. Safe on a nil journal.
func (j *Journal) Record(policyID, op, detail string) {
	if j == nil || j.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _ = j.db.ExecContext(ctx, `INSERT INTO policy_ops(policy_id, op, detail, ts) VALUES(?,?,?,?)`, policyID, op, detail, time.Now().Unix())
}

// Recent returns up to limit entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rows, err := j.db.QueryContext(ctx, `SELECT policy_id, op, detail, ts FROM policy_ops ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		if err := rows.Scan(&e.PolicyID, &e.Op, &e.Detail, &ts); err != nil {
			return nil, err
		}
		e.Time = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
