// Package storage keeps an offline SQLite snapshot of the last
// successfully loaded transaction set, so the client can still show
// data when the remote store is unreachable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tally/internal/core"
	"tally/internal/log"
)

const timestampLayout = time.RFC3339

type SnapshotRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSnapshotRepository(dbPath string, logger *log.Logger) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Save replaces the snapshot wholesale with the given transaction set,
// preserving its order. Implements service.SnapshotWriter.
func (r *SnapshotRepository) Save(ctx context.Context, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions
			(id, position, title, amount_cents, category, description, date, type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, tx := range txs {
		_, err := stmt.ExecContext(ctx,
			tx.ID, i, tx.Title, tx.Amount.Cents, tx.Category, tx.Description,
			tx.Date.String(), string(tx.Type),
			formatTimestamp(tx.CreatedAt), formatTimestamp(tx.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	if _, err := dbTx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		time.Now().UTC().Format(timestampLayout)); err != nil {
		return fmt.Errorf("record snapshot time: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	r.logger.InfoContext(ctx, "offline snapshot written",
		log.FieldOperation, log.OpSnapshot, log.FieldCount, len(txs))
	return nil
}

// List returns the snapshot in its stored order.
func (r *SnapshotRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category, description, date, type, created_at, updated_at
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx                 core.Transaction
			cents              int64
			date, typ, created string
			updated            string
		)
		if err := rows.Scan(&tx.ID, &tx.Title, &cents, &tx.Category, &tx.Description,
			&date, &typ, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Amount = core.Money{Cents: cents}
		tx.Type = core.TransactionType(typ)
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("snapshot row %s: %w", tx.ID, err)
		}
		tx.CreatedAt = parseTimestamp(created)
		tx.UpdatedAt = parseTimestamp(updated)
		out = append(out, tx)
	}
	return out, rows.Err()
}

// SavedAt returns when the snapshot was last written, if ever.
func (r *SnapshotRepository) SavedAt(ctx context.Context) (time.Time, bool) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&value)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
