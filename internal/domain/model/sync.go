package model

import "time"

// SyncMode selects how much of the ticket corpus a run fetches.
type SyncMode string

const (
	// SyncModeFull fetches the entire year-to-date corpus plus reference data.
	SyncModeFull SyncMode = "full"
	// SyncModeIncremental fetches only entities updated since the cursor.
	SyncModeIncremental SyncMode = "incremental"
)

// SyncPlan is the full-vs-incremental decision, made once per run from the
// presence or absence of the persisted cursor and threaded through the
// orchestration rather than re-checked at each call site.
type SyncPlan struct {
	Mode SyncMode `json:"mode"`
	// Since is the cursor watermark; only set for incremental plans.
	Since time.Time `json:"since,omitempty"`
}

// FullSync returns the plan used when no cursor exists.
func FullSync() SyncPlan {
	return SyncPlan{Mode: SyncModeFull}
}

// IncrementalSync returns the plan for fetching changes since the watermark.
func IncrementalSync(since time.Time) SyncPlan {
	return SyncPlan{Mode: SyncModeIncremental, Since: since}
}

// IsFull reports whether the plan fetches the whole corpus.
func (p SyncPlan) IsFull() bool {
	return p.Mode == SyncModeFull
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Plan            SyncPlan  `json:"plan"`
	SyncStart       time.Time `json:"sync_start"`
	TicketsFetched  int       `json:"tickets_fetched"`
	TicketsUpserted int       `json:"tickets_upserted"`
	ReferenceLoaded bool      `json:"reference_loaded"`
}
