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

// ErrAggregateNotFound is returned when a monthly aggregate bucket is missing.
var ErrAggregateNotFound = apperrors.NotFound("monthly aggregate not found")

// AggregateRepo persists monthly aggregates keyed by (year, month, partner).
type AggregateRepo struct {
	DB *sql.DB
}

// NewAggregateRepo creates a new AggregateRepo.
func NewAggregateRepo(db *sql.DB) *AggregateRepo {
	return &AggregateRepo{DB: db}
}

const aggregateColumns = `
	year, month, partner_id, total_tickets, resolved_tickets,
	data_loss_tickets, compressed_from_count, updated_at`

// Upsert writes an aggregate with last-write-wins semantics. Compression uses
// the accumulating in-transaction path in TicketRepo; this is for direct
// administrative writes and backfills.
func (r *AggregateRepo) Upsert(ctx context.Context, agg model.MonthlyAggregate) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO monthly_aggregates
				(year, month, partner_id, total_tickets, resolved_tickets, data_loss_tickets, compressed_from_count, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (year, month, (COALESCE(partner_id, ''))) DO UPDATE
			SET total_tickets = EXCLUDED.total_tickets,
			    resolved_tickets = EXCLUDED.resolved_tickets,
			    data_loss_tickets = EXCLUDED.data_loss_tickets,
			    compressed_from_count = EXCLUDED.compressed_from_count,
			    updated_at = now()`,
			agg.Year, agg.Month, agg.PartnerID, agg.TotalTickets,
			agg.ResolvedTickets, agg.DataLossTickets, agg.CompressedFromCount)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}

// GetByKey fetches one aggregate bucket.
func (r *AggregateRepo) GetByKey(ctx context.Context, key model.AggregateKey) (*model.MonthlyAggregate, error) {
	var out model.MonthlyAggregate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+aggregateColumns+`
			FROM monthly_aggregates
			WHERE year = $1 AND month = $2 AND partner_id IS NOT DISTINCT FROM $3`,
			key.Year, key.Month, key.PartnerID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.MonthlyAggregate])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAggregateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}
	return &out, nil
}

// List returns aggregates ordered by bucket, newest first.
func (r *AggregateRepo) List(ctx context.Context, limit, offset int) ([]model.MonthlyAggregate, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var out []model.MonthlyAggregate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+aggregateColumns+`
			FROM monthly_aggregates
			ORDER BY year DESC, month DESC, partner_id NULLS FIRST
			LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.MonthlyAggregate])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	return out, nil
}

// ListOlderThan returns aggregates whose bucket month ended before cutoff.
// The bucket end is the first day of the following month.
func (r *AggregateRepo) ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.MonthlyAggregate, error) {
	var out []model.MonthlyAggregate
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+aggregateColumns+`
			FROM monthly_aggregates
			WHERE make_date(year, month, 1) + interval '1 month' < $1
			ORDER BY year, month, partner_id NULLS FIRST`, cutoff)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.MonthlyAggregate])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list aggregates older than cutoff: %w", err)
	}
	return out, nil
}

// DeleteWithAudit removes one aggregate and appends the paired audit entry in
// the same transaction.
func (r *AggregateRepo) DeleteWithAudit(
	ctx context.Context,
	key model.AggregateKey,
	audit model.RetentionAuditEntry,
) (bool, error) {
	if err := audit.Validate(); err != nil {
		return false, fmt.Errorf("delete aggregate: %w", err)
	}

	var deleted bool
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			DELETE FROM monthly_aggregates
			WHERE year = $1 AND month = $2 AND partner_id IS NOT DISTINCT FROM $3`,
			key.Year, key.Month, key.PartnerID)
		if err != nil {
			return err
		}
		deleted = ct.RowsAffected() > 0
		if !deleted {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO retention_audit_log (id, action, target_id, row_count, justification)
			VALUES ($1, $2, $3, $4, $5)`,
			audit.ID, audit.Action, audit.TargetID, audit.RowCount, audit.Justification)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete aggregate: %w", err)
	}
	return deleted, nil
}
