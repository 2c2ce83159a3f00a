package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"

	"github.com/deskmetrics/deskmetrics/internal/data/pgxutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// ErrSnapshotNotFound is returned when a snapshot id is missing.
var ErrSnapshotNotFound = apperrors.NotFound("snapshot not found")

// rawRowChunkSize bounds the number of raw ticket rows inserted per batch
// inside the snapshot transaction.
const rawRowChunkSize = 1000

// SnapshotRepo persists weekly snapshots with their child rows.
type SnapshotRepo struct {
	DB *sql.DB
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{DB: db}
}

const snapshotColumns = `
	id, period_start, period_end, total_tickets, open_tickets,
	resolved_tickets, data_loss_tickets, created_at, expires_at`

// Exists reports whether a snapshot with the given id is persisted.
func (r *SnapshotRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM weekly_snapshots WHERE id = $1)`, id).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("snapshot exists: %w", err)
	}
	return exists, nil
}

// GetByID fetches one snapshot parent row.
func (r *SnapshotRepo) GetByID(ctx context.Context, id string) (*model.WeeklySnapshot, error) {
	var out model.WeeklySnapshot
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+snapshotColumns+`
			FROM weekly_snapshots WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.WeeklySnapshot])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &out, nil
}

// Insert writes the parent snapshot row, per-group stats, and chunked raw-row
// batches as one transaction, so the snapshot is logically atomic.
func (r *SnapshotRepo) Insert(
	ctx context.Context,
	snap model.WeeklySnapshot,
	stats []model.GroupResolutionStat,
	raw []model.SnapshotTicket,
) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		return r.insertInTx(ctx, tx, snap, stats, raw)
	})
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Replace deletes the prior version's children, then the parent, then
// reinserts, all in one transaction, avoiding duplicate-key failures and
// orphaned children during a force overwrite.
func (r *SnapshotRepo) Replace(
	ctx context.Context,
	snap model.WeeklySnapshot,
	stats []model.GroupResolutionStat,
	raw []model.SnapshotTicket,
) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM snapshot_tickets WHERE snapshot_id = $1`, snap.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM snapshot_group_stats WHERE snapshot_id = $1`, snap.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM weekly_snapshots WHERE id = $1`, snap.ID); err != nil {
			return err
		}
		return r.insertInTx(ctx, tx, snap, stats, raw)
	})
	if err != nil {
		return fmt.Errorf("replace snapshot %s: %w", snap.ID, err)
	}
	return nil
}

func (r *SnapshotRepo) insertInTx(
	ctx context.Context,
	tx pgx.Tx,
	snap model.WeeklySnapshot,
	stats []model.GroupResolutionStat,
	raw []model.SnapshotTicket,
) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO weekly_snapshots
			(id, period_start, period_end, total_tickets, open_tickets, resolved_tickets, data_loss_tickets, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.PeriodStart, snap.PeriodEnd, snap.TotalTickets, snap.OpenTickets,
		snap.ResolvedTickets, snap.DataLossTickets, snap.CreatedAt, snap.ExpiresAt); err != nil {
		return err
	}

	for _, s := range stats {
		if _, err := tx.Exec(ctx, `
			INSERT INTO snapshot_group_stats
				(snapshot_id, group_name, ticket_count, resolved_count, median_resolution_hours, avg_resolution_hours)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			snap.ID, s.GroupName, s.TicketCount, s.ResolvedCount,
			s.MedianResolutionHours, s.AvgResolutionHours); err != nil {
			return err
		}
	}

	for start := 0; start < len(raw); start += rawRowChunkSize {
		end := min(start+rawRowChunkSize, len(raw))
		batch := &pgx.Batch{}
		for _, row := range raw[start:end] {
			batch.Queue(`
				INSERT INTO snapshot_tickets
					(snapshot_id, external_id, status, group_name, partner_id, tags, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				snap.ID, row.ExternalID, row.Status, row.GroupName, row.PartnerID,
				row.Tags, row.CreatedAt, row.UpdatedAt)
		}
		results := tx.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		if err := results.Close(); err != nil {
			return err
		}
	}
	return nil
}

// GroupStats returns the per-group child rows of a snapshot.
func (r *SnapshotRepo) GroupStats(ctx context.Context, id string) ([]model.GroupResolutionStat, error) {
	var out []model.GroupResolutionStat
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT snapshot_id, group_name, ticket_count, resolved_count,
			       median_resolution_hours, avg_resolution_hours
			FROM snapshot_group_stats
			WHERE snapshot_id = $1
			ORDER BY group_name`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.GroupResolutionStat])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot group stats: %w", err)
	}
	return out, nil
}

// RawRowCount returns the number of raw ticket rows owned by a snapshot.
func (r *SnapshotRepo) RawRowCount(ctx context.Context, id string) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT COUNT(*) FROM snapshot_tickets WHERE snapshot_id = $1`, id).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("snapshot raw row count: %w", err)
	}
	return count, nil
}

// ListExpiring returns snapshots past the notification threshold but not yet
// eligible for deletion, ordered oldest first.
func (r *SnapshotRepo) ListExpiring(ctx context.Context, notifyBefore, hardExpiry time.Time) ([]model.WeeklySnapshot, error) {
	var out []model.WeeklySnapshot
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+snapshotColumns+`
			FROM weekly_snapshots
			WHERE created_at < $1 AND expires_at > $2
			ORDER BY created_at`, notifyBefore, hardExpiry)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.WeeklySnapshot])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list expiring snapshots: %w", err)
	}
	return out, nil
}

// ListExpired returns snapshots past expires_at or past the hard cutoff,
// which includes the grace period.
func (r *SnapshotRepo) ListExpired(ctx context.Context, now, hardCutoff time.Time) ([]model.WeeklySnapshot, error) {
	var out []model.WeeklySnapshot
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+snapshotColumns+`
			FROM weekly_snapshots
			WHERE expires_at <= $1 OR created_at < $2
			ORDER BY created_at`, now, hardCutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.WeeklySnapshot])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list expired snapshots: %w", err)
	}
	return out, nil
}

// DeleteWithAudit removes a snapshot (children cascade via FK) and appends
// the paired audit entry in the same transaction.
func (r *SnapshotRepo) DeleteWithAudit(ctx context.Context, id string, audit model.RetentionAuditEntry) (bool, error) {
	if err := audit.Validate(); err != nil {
		return false, fmt.Errorf("delete snapshot: %w", err)
	}

	var deleted bool
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `DELETE FROM weekly_snapshots WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected() > 0
		if !deleted {
			// Nothing was removed; do not write an audit row.
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO retention_audit_log (id, action, target_id, row_count, justification)
			VALUES ($1, $2, $3, $4, $5)`,
			audit.ID, audit.Action, audit.TargetID, audit.RowCount, audit.Justification)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return deleted, nil
}
