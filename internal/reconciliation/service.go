// Package reconciliation recomputes venue ledgers from their bookings and
// repairs any entry that has drifted.
package reconciliation

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/bookings"
	"slotbook/internal/docstore"
	"slotbook/internal/shared/constants"
	"slotbook/internal/slots"
	"slotbook/internal/venues"
	"slotbook/pkg/cache"
	"slotbook/pkg/logger"
	"slotbook/pkg/metrics"
)

const defaultRunsLimit = 20

// AvailabilityCache is invalidated for every venue whose ledger changed.
type AvailabilityCache interface {
	InvalidateAvailability(ctx context.Context, venueID string)
}

type Service interface {
	// Reconcile scans one venue, or every venue when venueID is empty.
	Reconcile(ctx context.Context, venueID string) (*Report, error)
	ListRuns(ctx context.Context, limit int) ([]*Report, error)
}

type service struct {
	store        docstore.Store
	venues       venues.Repository
	bookings     bookings.Repository
	availability AvailabilityCache
	cache        cache.Service
	retrier      docstore.Retrier
	log          *logger.Logger
	now          func() time.Time
}

func NewService(store docstore.Store, availability AvailabilityCache, cacheService cache.Service, retrier docstore.Retrier, log *logger.Logger) Service {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		store:        store,
		venues:       venues.NewRepository(store),
		bookings:     bookings.NewRepository(store),
		availability: availability,
		cache:        cacheService,
		retrier:      retrier,
		log:          log,
		now:          time.Now,
	}
}

// tally is the ledger a venue should have according to its bookings.
type tally struct {
	seats map[slots.Key]int
	ids   map[slots.Key][]string
}

func count(list []*bookings.Booking) tally {
	t := tally{seats: make(map[slots.Key]int), ids: make(map[slots.Key][]string)}
	for _, b := range list {
		if !b.Status.HoldsSeats() {
			continue
		}
		t.seats[b.SlotKey] += b.SeatCount
		t.ids[b.SlotKey] = append(t.ids[b.SlotKey], b.ID)
	}
	for _, ids := range t.ids {
		sort.Strings(ids)
	}
	return t
}

// diff compares a ledger to the tally over the union of their keys.
func diff(venueID string, ledger venues.Ledger, t tally) (keys int, corrections []Correction) {
	seen := make(map[slots.Key]struct{}, len(ledger)+len(t.seats))
	for k := range ledger {
		seen[k] = struct{}{}
	}
	for k := range t.seats {
		seen[k] = struct{}{}
	}

	for k := range seen {
		if ledger[k] == t.seats[k] {
			continue
		}
		ids := t.ids[k]
		if ids == nil {
			ids = []string{}
		}
		corrections = append(corrections, Correction{
			VenueID:    venueID,
			SlotKey:    k,
			OldValue:   ledger[k],
			NewValue:   t.seats[k],
			BookingIDs: ids,
		})
	}
	sort.Slice(corrections, func(i, j int) bool { return corrections[i].SlotKey < corrections[j].SlotKey })
	return len(seen), corrections
}

func (s *service) Reconcile(ctx context.Context, venueID string) (*Report, error) {
	report := &Report{
		ID:          uuid.NewString(),
		Scope:       ScopeAll,
		StartedAt:   s.now().UTC(),
		Corrections: []Correction{},
	}

	var targets []*venues.Venue
	if venueID != "" {
		report.Scope = venueID
		venue, err := s.venues.Get(ctx, venueID)
		if err != nil {
			return nil, err
		}
		targets = append(targets, venue)
	} else {
		list, err := s.venues.List(ctx)
		if err != nil {
			return nil, err
		}
		targets = list
	}

	for _, venue := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys, corrections, err := s.reconcileVenue(ctx, venue)
		if err != nil {
			s.log.ErrorWithContext(ctx, "Reconciliation failed for venue", err, map[string]interface{}{
				"venue_id": venue.ID,
			})
			report.Failures = append(report.Failures, VenueError{VenueID: venue.ID, Error: err.Error()})
			continue
		}
		report.VenuesScanned++
		report.SlotsScanned += keys
		report.AlreadyCorrect += keys - len(corrections)
		report.Corrected += len(corrections)
		report.Corrections = append(report.Corrections, corrections...)
	}
	report.FinishedAt = s.now().UTC()

	if err := s.saveRun(ctx, report); err != nil {
		// The corrections are committed; losing the history entry is not fatal.
		s.log.ErrorWithContext(ctx, "Failed to persist reconciliation run", err, map[string]interface{}{
			"run_id": report.ID,
		})
	}

	s.log.InfoWithContext(ctx, "Reconciliation Completed", map[string]interface{}{
		"run_id":          report.ID,
		"scope":           report.Scope,
		"venues_scanned":  report.VenuesScanned,
		"slots_scanned":   report.SlotsScanned,
		"already_correct": report.AlreadyCorrect,
		"corrected":       report.Corrected,
	})
	return report, nil
}

// reconcileVenue checks a snapshot first and only opens a transaction when
// the snapshot shows drift. The transaction recomputes from fresh reads so a
// booking committed after the snapshot is never undone.
func (s *service) reconcileVenue(ctx context.Context, venue *venues.Venue) (int, []Correction, error) {
	list, err := s.bookings.ListByVenue(ctx, venue.ID)
	if err != nil {
		return 0, nil, err
	}
	keys, corrections := diff(venue.ID, venue.Ledger, count(list))
	if len(corrections) == 0 {
		return keys, nil, nil
	}

	const op = "reconcile"
	r := s.retrier
	r.OnConflict = func(attempt int, err error) {
		metrics.RecordTxConflict(op)
		s.log.LogConcurrencyConflict(ctx, op, attempt, err)
	}
	started := time.Now()
	err = r.Run(ctx, s.store, func(ctx context.Context, tx docstore.Tx) error {
		fresh, err := venues.Load(tx, venue.ID)
		if err != nil {
			return err
		}
		current, err := bookings.ListForVenue(tx, venue.ID)
		if err != nil {
			return err
		}
		keys, corrections = diff(fresh.ID, fresh.Ledger, count(current))
		if len(corrections) == 0 {
			return nil
		}
		for _, c := range corrections {
			fresh.SetBooked(c.SlotKey, c.NewValue)
		}
		fresh.UpdatedAt = s.now().UTC()
		return venues.Save(tx, fresh)
	})
	metrics.ObserveTxDuration(op, started)
	if err != nil {
		return 0, nil, err
	}

	if len(corrections) > 0 {
		metrics.RecordLedgerCorrections(venue.ID, len(corrections))
		for _, c := range corrections {
			s.log.LogLedgerDrift(ctx, c.VenueID, c.SlotKey.String(), c.OldValue, c.NewValue)
		}
		if s.availability != nil {
			s.availability.InvalidateAvailability(ctx, venue.ID)
		}
	}
	return keys, corrections, nil
}

func (s *service) saveRun(ctx context.Context, report *Report) error {
	err := s.retrier.Run(ctx, s.store, func(ctx context.Context, tx docstore.Tx) error {
		return tx.Create(Collection, report.ID, "", report)
	})
	if err != nil {
		return err
	}
	if err := s.cache.DeletePattern(ctx, constants.PATTERN_INVALIDATE_RECONCILIATION); err != nil {
		s.log.WarnWithContext(ctx, "Failed to invalidate reconciliation cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *service) ListRuns(ctx context.Context, limit int) ([]*Report, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}

	var runs []*Report
	key := constants.CACHE_KEY_RECONCILIATION_RUNS + strconv.Itoa(limit)
	err := s.cache.GetOrSet(ctx, key, constants.TTL_RECONCILIATION_RUNS, func() (interface{}, error) {
		docs, err := s.store.List(ctx, Collection, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list reconciliation runs: %w", err)
		}
		out := make([]*Report, 0, len(docs))
		for _, doc := range docs {
			var r Report
			if err := doc.Decode(&r); err != nil {
				return nil, err
			}
			out = append(out, &r)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}, &runs)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

