package reconciliation

import (
	"time"

	"slotbook/internal/slots"
)

// Collection stores one document per reconciliation run.
const Collection = "reconciliation_runs"

// Correction records one ledger entry that was rewritten.
type Correction struct {
	VenueID    string    `json:"venue_id"`
	SlotKey    slots.Key `json:"slot_key"`
	OldValue   int       `json:"old_value"`
	NewValue   int       `json:"new_value"`
	BookingIDs []string  `json:"booking_ids"`
}

// VenueError is a venue the run could not finish. It does not fail the run.
type VenueError struct {
	VenueID string `json:"venue_id"`
	Error   string `json:"error"`
}

type Report struct {
	ID             string       `json:"id"`
	Scope          string       `json:"scope"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	VenuesScanned  int          `json:"venues_scanned"`
	SlotsScanned   int          `json:"slots_scanned"`
	AlreadyCorrect int          `json:"already_correct"`
	Corrected      int          `json:"corrected"`
	Corrections    []Correction `json:"corrections"`
	Failures       []VenueError `json:"failures,omitempty"`
}

// ScopeAll marks a run over every venue.
const ScopeAll = "all"
