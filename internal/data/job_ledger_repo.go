package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"

	"github.com/deskmetrics/deskmetrics/internal/data/pgxutil"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// Job ledger sentinels.
var (
	// ErrJobNotFound is returned when a ledger row is missing.
	ErrJobNotFound = apperrors.NotFound("job execution not found")
	// ErrJobAlreadyFinalized is returned when Finalize targets a row that
	// already left the running state. The ledger is written exactly once.
	ErrJobAlreadyFinalized = errors.New("job execution already finalized")
)

// JobLedgerRepo persists the pipeline run ledger. Rows are created at run
// start with status running, finalized exactly once, and never deleted: the
// ledger is the audit trail of pipeline runs.
type JobLedgerRepo struct {
	DB *sql.DB
}

// NewJobLedgerRepo creates a new JobLedgerRepo.
func NewJobLedgerRepo(db *sql.DB) *JobLedgerRepo {
	return &JobLedgerRepo{DB: db}
}

const jobExecutionColumns = `
	job_id, status, source, snapshot_id, started_at, completed_at,
	duration_ms, error, tickets_fetched, tickets_upserted`

// CreateRunning inserts a ledger row with status running.
func (r *JobLedgerRepo) CreateRunning(ctx context.Context, ec model.ExecutionContext) (*model.JobExecution, error) {
	var out model.JobExecution
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO job_executions (job_id, status, source, started_at)
			VALUES ($1, $2, $3, $4)
			RETURNING `+jobExecutionColumns,
			ec.JobID, model.JobStatusRunning, ec.Source, ec.ExecutedAt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobExecution])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create job execution: %w", err)
	}
	return &out, nil
}

// Finalize writes the terminal state of a run. The WHERE clause restricts the
// update to rows still running, so a second finalize attempt reports
// ErrJobAlreadyFinalized instead of overwriting the first outcome.
func (r *JobLedgerRepo) Finalize(
	ctx context.Context,
	jobID string,
	completion model.JobCompletion,
) (*model.JobExecution, error) {
	if err := completion.Validate(); err != nil {
		return nil, fmt.Errorf("finalize job execution: %w", err)
	}

	var out model.JobExecution
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE job_executions
			SET status = $2,
			    snapshot_id = $3,
			    completed_at = $4,
			    duration_ms = (EXTRACT(EPOCH FROM ($4::timestamptz - started_at)) * 1000)::bigint,
			    error = $5,
			    tickets_fetched = $6,
			    tickets_upserted = $7
			WHERE job_id = $1 AND status = 'running'
			RETURNING `+jobExecutionColumns,
			jobID, completion.Status, completion.SnapshotID, completion.CompletedAt,
			completion.Error, completion.TicketsFetched, completion.TicketsUpserted)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobExecution])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing row from one already finalized.
		if _, getErr := r.GetByJobID(ctx, jobID); getErr == nil {
			return nil, ErrJobAlreadyFinalized
		}
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finalize job execution: %w", err)
	}
	return &out, nil
}

// GetByJobID fetches one ledger row.
func (r *JobLedgerRepo) GetByJobID(ctx context.Context, jobID string) (*model.JobExecution, error) {
	var out model.JobExecution
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobExecutionColumns+`
			FROM job_executions WHERE job_id = $1`, jobID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.JobExecution])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job execution: %w", err)
	}
	return &out, nil
}

// ListRecent returns the newest ledger rows.
func (r *JobLedgerRepo) ListRecent(ctx context.Context, limit int) ([]model.JobExecution, error) {
	if limit <= 0 {
		limit = 20
	}

	var out []model.JobExecution
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+jobExecutionColumns+`
			FROM job_executions
			ORDER BY started_at DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.JobExecution])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list job executions: %w", err)
	}
	return out, nil
}
