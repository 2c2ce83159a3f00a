package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deskmetrics/deskmetrics/internal/data/pgxutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// TicketRepo persists full-resolution ticket rows.
type TicketRepo struct {
	DB *sql.DB
}

// NewTicketRepo creates a new TicketRepo.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{DB: db}
}

const ticketColumns = `
	external_id, subject, status, group_name, partner_id, tags,
	created_at, updated_at, synced_at`

// UpsertBatch upserts one chunk of tickets keyed by external id. The whole
// chunk is one short transaction; callers size chunks to bound lock duration
// and connection-pool usage.
func (r *TicketRepo) UpsertBatch(ctx context.Context, tickets []model.Ticket) (int, error) {
	if len(tickets) == 0 {
		return 0, nil
	}

	written := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, t := range tickets {
			batch.Queue(`
				INSERT INTO tickets (external_id, subject, status, group_name, partner_id, tags, created_at, updated_at, synced_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
				ON CONFLICT (external_id) DO UPDATE
				SET subject = EXCLUDED.subject,
				    status = EXCLUDED.status,
				    group_name = EXCLUDED.group_name,
				    partner_id = EXCLUDED.partner_id,
				    tags = EXCLUDED.tags,
				    created_at = EXCLUDED.created_at,
				    updated_at = EXCLUDED.updated_at,
				    synced_at = now()`,
				t.ExternalID, t.Subject, t.Status, t.GroupName, t.PartnerID, t.Tags, t.CreatedAt, t.UpdatedAt)
		}

		results := tx.SendBatch(ctx, batch)
		defer func() {
			_ = results.Close()
		}()
		for range tickets {
			ct, execErr := results.Exec()
			if execErr != nil {
				return execErr
			}
			written += int(ct.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert ticket batch: %w", err)
	}
	return written, nil
}

// ListForPeriod returns tickets created within [start, end).
func (r *TicketRepo) ListForPeriod(ctx context.Context, start, end time.Time) ([]model.Ticket, error) {
	var out []model.Ticket
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+ticketColumns+`
			FROM tickets
			WHERE created_at >= $1 AND created_at < $2
			ORDER BY created_at, external_id`, start, end)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Ticket])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list tickets for period: %w", err)
	}
	return out, nil
}

// CompressionBuckets groups full-resolution tickets created before the cutoff
// into (year, month, partner) buckets. Read-only: mutation happens per bucket
// in CompressBucket. Tickets without a partner id fall into the null-partner
// bucket rather than being dropped.
func (r *TicketRepo) CompressionBuckets(ctx context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error) {
	var out []model.MonthlyAggregate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT
				EXTRACT(YEAR FROM created_at)::int AS year,
				EXTRACT(MONTH FROM created_at)::int AS month,
				partner_id,
				COUNT(*)::int AS total_tickets,
				COUNT(*) FILTER (WHERE status IN ('resolved', 'closed'))::int AS resolved_tickets,
				COUNT(*) FILTER (WHERE 'data-loss' = ANY(tags))::int AS data_loss_tickets,
				COUNT(*)::int AS compressed_from_count,
				now() AS updated_at
			FROM tickets
			WHERE created_at < $1
			GROUP BY 1, 2, 3
			ORDER BY 1, 2, 3 NULLS FIRST`, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.MonthlyAggregate])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("compression buckets: %w", err)
	}
	return out, nil
}

// CompressBucket collapses one (year, month, partner) bucket: upserts the
// aggregate, deletes the source rows, and appends the paired audit entry, all
// in a single transaction. Counts accumulate on conflict so the sum of
// compressed_from_count across aggregates always equals the total rows
// removed from full-resolution storage. Returns the number of rows removed.
func (r *TicketRepo) CompressBucket(
	ctx context.Context,
	cutoff time.Time,
	agg model.MonthlyAggregate,
	audit model.RetentionAuditEntry,
) (int, error) {
	if err := audit.Validate(); err != nil {
		return 0, fmt.Errorf("compress bucket: %w", err)
	}

	removed := 0
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO monthly_aggregates
				(year, month, partner_id, total_tickets, resolved_tickets, data_loss_tickets, compressed_from_count, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (year, month, (COALESCE(partner_id, ''))) DO UPDATE
			SET total_tickets = monthly_aggregates.total_tickets + EXCLUDED.total_tickets,
			    resolved_tickets = monthly_aggregates.resolved_tickets + EXCLUDED.resolved_tickets,
			    data_loss_tickets = monthly_aggregates.data_loss_tickets + EXCLUDED.data_loss_tickets,
			    compressed_from_count = monthly_aggregates.compressed_from_count + EXCLUDED.compressed_from_count,
			    updated_at = now()`,
			agg.Year, agg.Month, agg.PartnerID, agg.TotalTickets,
			agg.ResolvedTickets, agg.DataLossTickets, agg.CompressedFromCount); err != nil {
			return err
		}

		ct, err := tx.Exec(ctx, `
			DELETE FROM tickets
			WHERE created_at < $1
			  AND EXTRACT(YEAR FROM created_at)::int = $2
			  AND EXTRACT(MONTH FROM created_at)::int = $3
			  AND partner_id IS NOT DISTINCT FROM $4`,
			cutoff, agg.Year, agg.Month, agg.PartnerID)
		if err != nil {
			return err
		}
		removed = int(ct.RowsAffected())

		_, err = tx.Exec(ctx, `
			INSERT INTO retention_audit_log (id, action, target_id, row_count, justification)
			VALUES ($1, $2, $3, $4, $5)`,
			audit.ID, audit.Action, audit.TargetID, removed, audit.Justification)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("compress bucket: %w", err)
	}
	return removed, nil
}

// Count returns the number of full-resolution rows.
func (r *TicketRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count tickets: %w", err)
	}
	return count, nil
}
