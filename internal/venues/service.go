package venues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/docstore"
	"slotbook/internal/shared/constants"
	"slotbook/internal/slots"
	"slotbook/pkg/cache"
	"slotbook/pkg/logger"
	"slotbook/pkg/metrics"
)

type Service interface {
	CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error)
	GetVenue(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context) ([]*Venue, error)

	// GenerateSlots merges rule output into the venue and persists it.
	GenerateSlots(ctx context.Context, id string, rules []slots.Rule) (*GenerateSlotsResponse, error)
	UpdateSlotCapacity(ctx context.Context, id string, key slots.Key, capacity int) (*Venue, error)
	RemoveSlot(ctx context.Context, id string, key slots.Key) (*Venue, error)

	// GetAvailability is a cached read for display only; capacity decisions
	// always re-read the venue inside a transaction.
	GetAvailability(ctx context.Context, id, date string) (*AvailabilityResponse, error)
	InvalidateAvailability(ctx context.Context, id string)
}

type service struct {
	store   docstore.Store
	repo    Repository
	retrier docstore.Retrier
	cache   cache.Service
	log     *logger.Logger
}

func NewService(store docstore.Store, cacheService cache.Service, retrier docstore.Retrier, log *logger.Logger) Service {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		store:   store,
		repo:    NewRepository(store),
		retrier: retrier,
		cache:   cacheService,
		log:     log,
	}
}

func (s *service) CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error) {
	now := time.Now().UTC()
	venue := &Venue{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Timezone:  req.Timezone,
		Slots:     []slots.TimeSlot{},
		Ledger:    Ledger{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if venue.Timezone == "" {
		venue.Timezone = "UTC"
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		return Insert(tx, venue)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}

	s.log.InfoWithContext(ctx, "Venue Created", map[string]interface{}{
		"venue_id": venue.ID,
		"name":     venue.Name,
	})
	return venue, nil
}

func (s *service) GetVenue(ctx context.Context, id string) (*Venue, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListVenues(ctx context.Context) ([]*Venue, error) {
	return s.repo.List(ctx)
}

func (s *service) GenerateSlots(ctx context.Context, id string, rules []slots.Rule) (*GenerateSlotsResponse, error) {
	var resp *GenerateSlotsResponse
	err := s.run(ctx, "generate_slots", func(ctx context.Context, tx docstore.Tx) error {
		venue, err := Load(tx, id)
		if err != nil {
			return err
		}

		result, err := slots.Generate(venue.Slots, rules)
		if err != nil {
			return err
		}

		venue.Slots = result.Slots
		venue.UpdatedAt = time.Now().UTC()
		if err := Save(tx, venue); err != nil {
			return err
		}

		resp = &GenerateSlotsResponse{
			Venue:            venue,
			Added:            result.Added,
			Rejected:         result.Rejected,
			RejectedOverlaps: result.RejectedOverlaps(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp.RejectedOverlaps > 0 {
		s.log.WarnWithContext(ctx, "Overlapping slots rejected", map[string]interface{}{
			"venue_id": id,
			"rejected": resp.RejectedOverlaps,
		})
	}
	s.InvalidateAvailability(ctx, id)
	return resp, nil
}

func (s *service) UpdateSlotCapacity(ctx context.Context, id string, key slots.Key, capacity int) (*Venue, error) {
	return s.mutate(ctx, "update_slot_capacity", id, func(v *Venue) error {
		return v.SetCapacity(key, capacity)
	})
}

func (s *service) RemoveSlot(ctx context.Context, id string, key slots.Key) (*Venue, error) {
	return s.mutate(ctx, "remove_slot", id, func(v *Venue) error {
		return v.RemoveSlot(key)
	})
}

func (s *service) GetAvailability(ctx context.Context, id, date string) (*AvailabilityResponse, error) {
	var resp AvailabilityResponse
	err := s.cache.GetOrSet(ctx, constants.BuildVenueAvailabilityKey(id, date), constants.TTL_VENUE_AVAILABILITY,
		func() (interface{}, error) {
			venue, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return buildAvailability(venue, date, time.Now().UTC()), nil
		}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) InvalidateAvailability(ctx context.Context, id string) {
	if err := s.cache.DeletePattern(ctx, constants.BuildVenueAvailabilityPattern(id)); err != nil {
		s.log.WarnWithContext(ctx, "Failed to invalidate availability cache", map[string]interface{}{
			"venue_id": id,
			"error":    err.Error(),
		})
	}
}

func (s *service) mutate(ctx context.Context, op, id string, apply func(v *Venue) error) (*Venue, error) {
	var out *Venue
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		venue, err := Load(tx, id)
		if err != nil {
			return err
		}
		if err := apply(venue); err != nil {
			return err
		}
		venue.UpdatedAt = time.Now().UTC()
		if err := Save(tx, venue); err != nil {
			return err
		}
		out = venue
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.InvalidateAvailability(ctx, id)
	return out, nil
}

func (s *service) run(ctx context.Context, op string, fn docstore.TxFunc) error {
	r := s.retrier
	r.OnConflict = func(attempt int, err error) {
		metrics.RecordTxConflict(op)
		s.log.LogConcurrencyConflict(ctx, op, attempt, err)
	}
	started := time.Now()
	defer metrics.ObserveTxDuration(op, started)

	err := r.Run(ctx, s.store, fn)
	if errors.Is(err, docstore.ErrRetriesExhausted) {
		s.log.ErrorWithContext(ctx, "Venue transaction gave up", err, map[string]interface{}{"operation": op})
	}
	return err
}
