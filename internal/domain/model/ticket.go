// Package model contains the persisted and computed entities of the
// deskmetrics reporting pipeline.
package model

import (
	"strings"
	"time"
)

// TicketStatus is the lifecycle state of a helpdesk ticket as reported by the
// external collaborator.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusResolved TicketStatus = "resolved"
	TicketStatusClosed   TicketStatus = "closed"
)

// TagDataLoss marks tickets reporting customer data loss. Counted separately
// in snapshots and monthly aggregates.
const TagDataLoss = "data-loss"

// Ticket is one full-resolution helpdesk ticket row. Keyed by the
// collaborator's external id; rows older than the compression threshold are
// collapsed into MonthlyAggregate and removed.
type Ticket struct {
	ExternalID int64        `json:"external_id"          db:"external_id"`
	Subject    string       `json:"subject"              db:"subject"`
	Status     TicketStatus `json:"status"               db:"status"`
	GroupName  string       `json:"group_name"           db:"group_name"`
	PartnerID  *string      `json:"partner_id,omitempty" db:"partner_id"`
	Tags       []string     `json:"tags"                 db:"tags"`
	CreatedAt  time.Time    `json:"created_at"           db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"           db:"updated_at"`
	SyncedAt   time.Time    `json:"synced_at"            db:"synced_at"`
}

// IsResolved reports whether the ticket reached a terminal state.
func (t *Ticket) IsResolved() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// HasTag reports whether the ticket carries the given tag (case-insensitive).
func (t *Ticket) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// ResolutionHours returns the open-to-last-update duration in hours. Only
// meaningful for resolved tickets; callers filter on IsResolved first.
func (t *Ticket) ResolutionHours() float64 {
	return t.UpdatedAt.Sub(t.CreatedAt).Hours()
}

// ReferenceGroup is a helpdesk agent group from the collaborator's reference
// data. Fetched on FULL syncs only and cached for incremental runs.
type ReferenceGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceCompany is a partner company from the collaborator's reference data.
type ReferenceCompany struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
