package model

import "time"

// MonthlyAggregate is the compressed form of one month of full-resolution
// tickets for one partner (nil PartnerID is the bucket for tickets without a
// partner). Keyed by (year, month, partner); upserts are last-write-wins so
// re-running compression over already-compressed data is a no-op.
// CompressedFromCount records how many full-resolution rows were collapsed:
// the sum across aggregates produced by one run equals the rows removed.
type MonthlyAggregate struct {
	Year                int       `json:"year"                  db:"year"`
	Month               int       `json:"month"                 db:"month"`
	PartnerID           *string   `json:"partner_id,omitempty"  db:"partner_id"`
	TotalTickets        int       `json:"total_tickets"         db:"total_tickets"`
	ResolvedTickets     int       `json:"resolved_tickets"      db:"resolved_tickets"`
	DataLossTickets     int       `json:"data_loss_tickets"     db:"data_loss_tickets"`
	CompressedFromCount int       `json:"compressed_from_count" db:"compressed_from_count"`
	UpdatedAt           time.Time `json:"updated_at"            db:"updated_at"`
}

// AggregateKey identifies one monthly aggregate bucket.
type AggregateKey struct {
	Year      int
	Month     int
	PartnerID *string
}

// Key returns the bucket this aggregate belongs to.
func (a *MonthlyAggregate) Key() AggregateKey {
	return AggregateKey{Year: a.Year, Month: a.Month, PartnerID: a.PartnerID}
}
