package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name  string
	value int64
	tags  map[string]string
}

type recordingSink struct {
	counts  []recordedMetric
	timings []recordedMetric
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.counts = append(r.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (r *recordingSink) Gauge(string, float64, map[string]string) {}

func (r *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.timings = append(r.timings, recordedMetric{name: name, value: int64(value), tags: tags})
}

func (r *recordingSink) count(name string) *recordedMetric {
	for i := range r.counts {
		if r.counts[i].name == name {
			return &r.counts[i]
		}
	}
	return nil
}

func TestEmitPipelineRunSuccess(t *testing.T) {
	sink := &recordingSink{}
	EmitPipelineRun(sink, PipelineRun{
		Source:          "scheduled",
		Result:          ResultSuccess,
		Duration:        2 * time.Second,
		TicketsFetched:  40,
		TicketsUpserted: 38,
	})

	run := sink.count("pipeline.run")
	require.NotNil(t, run)
	assert.Equal(t, int64(1), run.value)
	assert.Equal(t, "scheduled", run.tags["source"])
	assert.Equal(t, ResultSuccess, run.tags["result"])

	fetched := sink.count("pipeline.tickets_fetched")
	require.NotNil(t, fetched)
	assert.Equal(t, int64(40), fetched.value)

	require.Len(t, sink.timings, 1)
	assert.Equal(t, "pipeline.duration", sink.timings[0].name)
}

func TestEmitPipelineRunErrorSkipsVolumeCounters(t *testing.T) {
	sink := &recordingSink{}
	EmitPipelineRun(sink, PipelineRun{Source: "manual", Result: ResultError, TicketsFetched: 40})

	require.NotNil(t, sink.count("pipeline.run"))
	assert.Nil(t, sink.count("pipeline.tickets_fetched"))
	assert.Nil(t, sink.count("pipeline.tickets_upserted"))
	assert.Empty(t, sink.timings, "no duration recorded for zero duration")
}

func TestEmitRetention(t *testing.T) {
	t.Run("live success emits rows removed", func(t *testing.T) {
		sink := &recordingSink{}
		EmitRetention(sink, "compress_tickets", false, 120, nil)

		pass := sink.count("retention.pass")
		require.NotNil(t, pass)
		assert.Equal(t, "live", pass.tags["mode"])
		assert.Equal(t, ResultSuccess, pass.tags["result"])

		rows := sink.count("retention.rows_removed")
		require.NotNil(t, rows)
		assert.Equal(t, int64(120), rows.value)
	})

	t.Run("dry run suppresses rows removed", func(t *testing.T) {
		sink := &recordingSink{}
		EmitRetention(sink, "scan_snapshots", true, 5, nil)

		pass := sink.count("retention.pass")
		require.NotNil(t, pass)
		assert.Equal(t, "dry_run", pass.tags["mode"])
		assert.Nil(t, sink.count("retention.rows_removed"))
	})

	t.Run("error tags the pass", func(t *testing.T) {
		sink := &recordingSink{}
		EmitRetention(sink, "purge_aggregates", false, 0, errors.New("boom"))

		pass := sink.count("retention.pass")
		require.NotNil(t, pass)
		assert.Equal(t, ResultError, pass.tags["result"])
		assert.Nil(t, sink.count("retention.rows_removed"))
	})
}

func TestEmittersTolerateNilSink(t *testing.T) {
	EmitPipelineRun(nil, PipelineRun{Result: ResultSuccess})
	EmitRetention(nil, "compress_tickets", false, 1, nil)
}
