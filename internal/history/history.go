// Package history records backup and restore runs in the local SQLite
// database for later inspection. The history is purely advisory: restore
// runs never read it, every run recomputes its work from live bridge
// state.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run kinds.
const (
	KindBackup  = "backup"
	KindRestore = "restore"
)

// Run represents a single recorded backup or restore invocation.
type Run struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	BridgeID     string         `json:"bridge_id,omitempty"`
	BridgeName   string         `json:"bridge_name,omitempty"`
	SnapshotPath string         `json:"snapshot_path"`
	Details      map[string]any `json:"details,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}

// Filter controls which runs to return.
type Filter struct {
	Kind  string // optional: backup or restore
	Limit int    // default 20, max 200
}

// Repository defines the interface for run history operations.
type Repository interface {
	Record(ctx context.Context, run *Run) error
	List(ctx context.Context, filter Filter) ([]Run, error)
}

// SQLiteRepository stores runs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new run history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts a run. The ID is generated if empty.
func (r *SQLiteRepository) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = "run-" + uuid.NewString()[:8]
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	var detailsJSON *string
	if run.Details != nil {
		b, err := json.Marshal(run.Details)
		if err != nil {
			return fmt.Errorf("marshalling run details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, bridge_id, bridge_name, snapshot_path, details, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind,
		nullableString(run.BridgeID), nullableString(run.BridgeName),
		run.SnapshotPath, detailsJSON,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns runs matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) ([]Run, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for history queries
		filter.Limit = 200
	}

	query := `SELECT id, kind, bridge_id, bridge_name, snapshot_path, details, started_at, finished_at
		 FROM runs`
	var args []any
	if filter.Kind != "" {
		query += " WHERE kind = ?"
		args = append(args, filter.Kind)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var bridgeID, bridgeName, detailsJSON sql.NullString
		var startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.Kind, &bridgeID, &bridgeName,
			&run.SnapshotPath, &detailsJSON, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if bridgeID.Valid {
			run.BridgeID = bridgeID.String
		}
		if bridgeName.Valid {
			run.BridgeName = bridgeName.String
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				run.Details = details
			}
		}

		if run.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("parsing run start time %q: %w", startedAt, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
			return nil, fmt.Errorf("parsing run finish time %q: %w", finishedAt, err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// nullableString returns nil for empty strings. Used for nullable TEXT
// columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
