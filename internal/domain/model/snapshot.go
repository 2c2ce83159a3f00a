package model

import (
	"time"
)

// SnapshotIDPrefix prefixes every weekly snapshot id.
const SnapshotIDPrefix = "wk_"

// SnapshotIDFor derives the deterministic snapshot id for a reporting period
// from the period's end date. Writing the same period twice always targets the
// same row, which is what makes snapshot writes idempotent.
func SnapshotIDFor(periodEnd time.Time) string {
	return SnapshotIDPrefix + periodEnd.UTC().Format("2006-01-02")
}

// WeeklySnapshot is the persisted summary of one reporting period. Immutable
// once written unless explicitly force-overwritten. ExpiresAt is denormalized
// at write time so retention scans never recompute it.
type WeeklySnapshot struct {
	ID              string    `json:"id"               db:"id"`
	PeriodStart     time.Time `json:"period_start"     db:"period_start"`
	PeriodEnd       time.Time `json:"period_end"       db:"period_end"`
	TotalTickets    int       `json:"total_tickets"    db:"total_tickets"`
	OpenTickets     int       `json:"open_tickets"     db:"open_tickets"`
	ResolvedTickets int       `json:"resolved_tickets" db:"resolved_tickets"`
	DataLossTickets int       `json:"data_loss_tickets" db:"data_loss_tickets"`
	CreatedAt       time.Time `json:"created_at"       db:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"       db:"expires_at"`
}

// GroupResolutionStat is a per-group resolution breakdown persisted as a child
// row of a WeeklySnapshot.
type GroupResolutionStat struct {
	SnapshotID            string  `json:"snapshot_id"             db:"snapshot_id"`
	GroupName             string  `json:"group_name"              db:"group_name"`
	TicketCount           int     `json:"ticket_count"            db:"ticket_count"`
	ResolvedCount         int     `json:"resolved_count"          db:"resolved_count"`
	MedianResolutionHours float64 `json:"median_resolution_hours" db:"median_resolution_hours"`
	AvgResolutionHours    float64 `json:"avg_resolution_hours"    db:"avg_resolution_hours"`
}

// SnapshotTicket is a raw per-ticket row captured at snapshot time, owned by
// its parent WeeklySnapshot.
type SnapshotTicket struct {
	SnapshotID string       `json:"snapshot_id"          db:"snapshot_id"`
	ExternalID int64        `json:"external_id"          db:"external_id"`
	Status     TicketStatus `json:"status"               db:"status"`
	GroupName  string       `json:"group_name"           db:"group_name"`
	PartnerID  *string      `json:"partner_id,omitempty" db:"partner_id"`
	Tags       []string     `json:"tags"                 db:"tags"`
	CreatedAt  time.Time    `json:"created_at"           db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"           db:"updated_at"`
}

// WeeklyMetrics is the computed (not yet persisted) aggregate for one
// reporting period, handed to the snapshot writer.
type WeeklyMetrics struct {
	PeriodStart     time.Time             `json:"period_start"`
	PeriodEnd       time.Time             `json:"period_end"`
	TotalTickets    int                   `json:"total_tickets"`
	OpenTickets     int                   `json:"open_tickets"`
	ResolvedTickets int                   `json:"resolved_tickets"`
	DataLossTickets int                   `json:"data_loss_tickets"`
	GroupStats      []GroupResolutionStat `json:"group_stats"`
}

// SnapshotWriteResult reports the outcome of a snapshot write.
type SnapshotWriteResult string

const (
	// SnapshotWritten means a new snapshot row (and children) were persisted.
	SnapshotWritten SnapshotWriteResult = "written"
	// SnapshotAlreadyExists means the id existed and force was false; nothing
	// was written.
	SnapshotAlreadyExists SnapshotWriteResult = "already_exists"
	// SnapshotOverwritten means a prior version was replaced under force.
	SnapshotOverwritten SnapshotWriteResult = "overwritten"
)
