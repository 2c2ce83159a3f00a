// Package metrics defines the pipeline's metric vocabulary on top of the
// statsd sink.
package metrics

import (
	"time"

	"github.com/deskmetrics/deskmetrics/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// PipelineRun captures one coordinator run for metric emission.
type PipelineRun struct {
	Source          string
	Result          string
	Duration        time.Duration
	TicketsFetched  int
	TicketsUpserted int
}

// EmitPipelineRun emits the standard run counters and timing.
func EmitPipelineRun(sink statsd.Sink, in PipelineRun) {
	if sink == nil {
		return
	}
	tags := map[string]string{"source": in.Source, "result": in.Result}

	sink.Count("pipeline.run", 1, tags)
	if in.Duration > 0 {
		sink.Timing("pipeline.duration", in.Duration, tags)
	}
	if in.Result == ResultSuccess {
		sink.Count("pipeline.tickets_fetched", int64(in.TicketsFetched), nil)
		sink.Count("pipeline.tickets_upserted", int64(in.TicketsUpserted), nil)
	}
}

// EmitRetention emits counters for one retention pass.
func EmitRetention(sink statsd.Sink, operation string, dryRun bool, rowsRemoved int, err error) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	tags := map[string]string{"operation": operation, "result": result, "mode": mode}

	sink.Count("retention.pass", 1, tags)
	if err == nil && !dryRun {
		sink.Count("retention.rows_removed", int64(rowsRemoved), map[string]string{"operation": operation})
	}
}
