package constants

import "time"

// Redis cache keys and TTLs.
// Pattern: slotbook:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_DYNAMIC_QUICK  = 2 * time.Minute  // reconciliation run listings
	TTL_REALTIME_SHORT = 30 * time.Second // live slot availability
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "slotbook"
)

// ================== VENUES MODULE ==================

const (
	CACHE_KEY_VENUE_AVAILABILITY = CACHE_PREFIX + ":venues:availability:id:" // + venue-id:date:X
)

const (
	TTL_VENUE_AVAILABILITY = TTL_REALTIME_SHORT
)

// ================== RECONCILIATION MODULE ==================

const (
	CACHE_KEY_RECONCILIATION_RUNS = CACHE_PREFIX + ":reconciliation:runs:limit:" // + limit
	TTL_RECONCILIATION_RUNS       = TTL_DYNAMIC_QUICK
)

// ================== RATE LIMIT MODULE ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:" // + type:ip
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_RECONCILIATION = CACHE_PREFIX + ":reconciliation:*"
)

// BuildVenueAvailabilityKey keys availability for one date; an empty date covers every slot.
func BuildVenueAvailabilityKey(venueID, date string) string {
	if date == "" {
		date = "all"
	}
	return CACHE_KEY_VENUE_AVAILABILITY + venueID + ":date:" + date
}

func BuildVenueAvailabilityPattern(venueID string) string {
	return CACHE_KEY_VENUE_AVAILABILITY + venueID + ":*"
}
