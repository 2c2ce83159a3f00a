package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/deskmetrics/deskmetrics/internal/data/pgxutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// AuditRepo reads the append-only retention audit log and provides the
// out-of-band append path used by the fallback mirror. In-transaction audit
// writes live next to their deletes in TicketRepo, SnapshotRepo, and
// AggregateRepo.
type AuditRepo struct {
	DB *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db}
}

// Append writes one audit entry outside any delete transaction.
func (r *AuditRepo) Append(ctx context.Context, entry model.RetentionAuditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO retention_audit_log (id, action, target_id, row_count, justification)
			VALUES ($1, $2, $3, $4, $5)`,
			entry.ID, entry.Action, entry.TargetID, entry.RowCount, entry.Justification)
		return err
	})
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit rows.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.RetentionAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []model.RetentionAuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, action, target_id, row_count, justification, created_at
			FROM retention_audit_log
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RetentionAuditEntry])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
}

// CountByAction returns the number of audit rows for one action.
func (r *AuditRepo) CountByAction(ctx context.Context, action model.RetentionAction) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM retention_audit_log WHERE action = $1`, action).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count audit entries: %w", err)
	}
	return count, nil
}

// FileAuditSink mirrors audit entries to an append-only JSONL file. Used as
// the durable fallback when the primary audit store is unavailable, so the
// pipeline keeps operating with its audit trail intact.
type FileAuditSink struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileAuditSink creates a FileAuditSink writing to path.
func NewFileAuditSink(path string, logger *slog.Logger) *FileAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileAuditSink{path: path, logger: logger.With("component", "audit_fallback")}
}

// Append writes one entry as a JSON line, fsyncing before close.
func (s *FileAuditSink) Append(_ context.Context, entry model.RetentionAuditEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("fallback audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open audit fallback file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit fallback: %w", err)
	}
	return f.Sync()
}
