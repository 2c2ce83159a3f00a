package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/deskmetrics/deskmetrics/internal/core"
	"github.com/deskmetrics/deskmetrics/internal/domain/model"
)

// ReportServiceOptions groups dependencies for ReportService.
type ReportServiceOptions struct {
	Tickets core.TicketRepository // Required: ticket repository
	Logger  *slog.Logger          // Optional: structured logger
}

// ReportService computes the aggregate metrics for one reporting period from
// full-resolution ticket rows. It never mutates anything.
type ReportService struct {
	tickets core.TicketRepository
	logger  *slog.Logger
}

// NewReportService constructs a new ReportService.
func NewReportService(opts ReportServiceOptions) (*ReportService, error) {
	if opts.Tickets == nil {
		return nil, errors.New("TicketRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "report_service")
	}

	return &ReportService{tickets: opts.Tickets, logger: logger}, nil
}

// MustNewReportService constructs a new ReportService and panics on error.
func MustNewReportService(opts ReportServiceOptions) *ReportService {
	svc, err := NewReportService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// ComputeWeekly loads tickets created within [periodStart, periodEnd) and
// returns the period's metrics plus the raw rows to capture alongside the
// snapshot.
func (s *ReportService) ComputeWeekly(
	ctx context.Context,
	periodStart, periodEnd time.Time,
) (*model.WeeklyMetrics, []model.Ticket, error) {
	if !periodEnd.After(periodStart) {
		return nil, nil, fmt.Errorf("period end %s must be after start %s",
			periodEnd.Format(time.RFC3339), periodStart.Format(time.RFC3339))
	}

	tickets, err := s.tickets.ListForPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("list tickets for period: %w", err)
	}

	metrics := ComputeMetrics(periodStart, periodEnd, tickets)

	if s.logger != nil {
		s.logger.DebugContext(ctx, "weekly metrics computed",
			"period_end", periodEnd.Format("2006-01-02"),
			"total", metrics.TotalTickets,
			"groups", len(metrics.GroupStats))
	}

	return metrics, tickets, nil
}

// ComputeMetrics derives the period's aggregate counters and per-group
// resolution statistics from the given tickets.
func ComputeMetrics(periodStart, periodEnd time.Time, tickets []model.Ticket) *model.WeeklyMetrics {
	metrics := &model.WeeklyMetrics{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	type groupAccum struct {
		total      int
		resolved   int
		hours      []float64
		hoursTotal float64
	}
	groups := make(map[string]*groupAccum)

	for i := range tickets {
		t := &tickets[i]
		metrics.TotalTickets++
		if t.HasTag(model.TagDataLoss) {
			metrics.DataLossTickets++
		}

		acc := groups[t.GroupName]
		if acc == nil {
			acc = &groupAccum{}
			groups[t.GroupName] = acc
		}
		acc.total++

		if t.IsResolved() {
			metrics.ResolvedTickets++
			acc.resolved++
			h := t.ResolutionHours()
			acc.hours = append(acc.hours, h)
			acc.hoursTotal += h
		} else {
			metrics.OpenTickets++
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		acc := groups[name]
		stat := model.GroupResolutionStat{
			GroupName:     name,
			TicketCount:   acc.total,
			ResolvedCount: acc.resolved,
		}
		if len(acc.hours) > 0 {
			stat.MedianResolutionHours = lowerMedian(acc.hours)
			stat.AvgResolutionHours = acc.hoursTotal / float64(len(acc.hours))
		}
		metrics.GroupStats = append(metrics.GroupStats, stat)
	}

	return metrics
}

// lowerMedian returns the lower-middle element of the sorted sample for
// even-sized samples. No interpolation, a deliberate simplification.
func lowerMedian(sample []float64) float64 {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}
