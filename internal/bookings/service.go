package bookings

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"slotbook/internal/docstore"
	"slotbook/internal/notifications"
	"slotbook/internal/reminders"
	"slotbook/internal/slots"
	"slotbook/internal/venues"
	"slotbook/pkg/logger"
	"slotbook/pkg/metrics"
)

// Notifier publishes booking notifications
type Notifier interface {
	Dispatch(ctx context.Context, t notifications.NotificationType, b notifications.BookingContext, data map[string]interface{}) error
}

// AvailabilityCache is invalidated after every committed ledger change
type AvailabilityCache interface {
	InvalidateAvailability(ctx context.Context, venueID string)
}

type Service interface {
	CreateBooking(ctx context.Context, venueID string, req CreateBookingRequest) (*Booking, string, error)
	TransferBooking(ctx context.Context, id string, newSlot slots.Key, newSeatCount int) (*Booking, error)
	CancelBooking(ctx context.Context, id, reason string) (*Booking, error)
	// DeleteBooking removes the record for good, releasing any seats it still holds.
	DeleteBooking(ctx context.Context, id string) (*Booking, error)

	GetBooking(ctx context.Context, id string) (*Booking, error)
	VerifyToken(ctx context.Context, id, token string) (*Booking, error)
	ListVenueBookings(ctx context.Context, venueID string) ([]*Booking, error)

	DueReminders(ctx context.Context, id string) ([]reminders.Kind, error)
	MarkReminderSent(ctx context.Context, id string, kind reminders.Kind) (bool, error)
	SweepReminders(ctx context.Context) (int, error)
}

type Options struct {
	Retrier docstore.Retrier
	// TokenCost is the bcrypt cost for management tokens.
	TokenCost int
	Now       func() time.Time
}

type service struct {
	store        docstore.Store
	repo         Repository
	venues       venues.Repository
	notifier     Notifier
	availability AvailabilityCache
	log          *logger.Logger
	opts         Options
}

func NewService(store docstore.Store, notifier Notifier, availability AvailabilityCache, log *logger.Logger, opts Options) Service {
	if opts.TokenCost == 0 {
		opts.TokenCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.GetDefault()
	}
	if notifier == nil {
		notifier = notifications.NewDispatcher(nil, log)
	}
	return &service{
		store:        store,
		repo:         NewRepository(store),
		venues:       venues.NewRepository(store),
		notifier:     notifier,
		availability: availability,
		log:          log,
		opts:         opts,
	}
}

func (s *service) now() time.Time {
	return s.opts.Now().UTC()
}

// CreateBooking reserves seats and returns the booking with its management
// token. The token is only ever available here.
func (s *service) CreateBooking(ctx context.Context, venueID string, req CreateBookingRequest) (*Booking, string, error) {
	const op = "create"

	key, err := slots.ParseKey(req.SlotKey)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", venues.ErrInvalidSlot, err)
	}
	if req.SeatCount <= 0 {
		return nil, "", venues.ErrInvalidSeatCount
	}

	token, hash, err := s.newToken()
	if err != nil {
		return nil, "", err
	}
	reference, err := generateBookingReference(key)
	if err != nil {
		return nil, "", err
	}
	bookingID := uuid.NewString()

	var (
		created     *Booking
		confirmedAt time.Time
	)
	err = s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		venue, err := venues.Load(tx, venueID)
		if err != nil {
			return err
		}
		slot, ok := venue.Slot(key)
		if !ok {
			return fmt.Errorf("%s: %w", key, venues.ErrInvalidSlot)
		}
		if _, err := venue.Adjust(key, req.SeatCount); err != nil {
			return err
		}

		now := s.now()
		state := reminders.NewState()
		// Claimed here and released again if publishing fails, so the sweep
		// never sends a second confirmation for a booking it raced with.
		if _, err := state.Mark(reminders.KindConfirmation, now); err != nil {
			return err
		}
		confirmedAt = now

		booking := &Booking{
			ID:        bookingID,
			Reference: reference,
			TokenHash: hash,
			VenueID:   venue.ID,
			SlotKey:   key,
			Weekday:   slot.Weekday,
			SeatCount: req.SeatCount,
			Status:    StatusConfirmed,
			Contact: Contact{
				Name:  req.Contact.Name,
				Email: req.Contact.Email,
				Phone: req.Contact.Phone,
			},
			Reminders: state,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(Collection, booking.ID, booking.VenueID, booking); err != nil {
			return err
		}
		venue.UpdatedAt = now
		if err := venues.Save(tx, venue); err != nil {
			return err
		}
		created = booking
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return nil, "", err
	}

	metrics.RecordBookingOperation(op, metrics.ResultSuccess)
	s.log.LogBookingCreated(ctx, created.ID, created.VenueID, created.SlotKey.String(), created.SeatCount)
	s.afterCommit(ctx, created.VenueID)
	if err := s.notifier.Dispatch(ctx, notifications.NotificationTypeBookingConfirmed, created.notificationContext(),
		map[string]interface{}{"reference": created.Reference}); err != nil {
		s.releaseReminder(ctx, created.ID, reminders.KindConfirmation, confirmedAt)
		if created.Reminders != nil {
			created.Reminders.Unmark(reminders.KindConfirmation, confirmedAt)
		}
	}
	return created, token, nil
}

// TransferBooking moves a confirmed booking to newSlot with newSeatCount.
// Changing only the seat count is a transfer to the same slot; in that case
// the booking's own seats count as available. Reminders reset whenever the
// slot changes.
func (s *service) TransferBooking(ctx context.Context, id string, newSlot slots.Key, newSeatCount int) (*Booking, error) {
	const op = "transfer"

	if newSeatCount <= 0 {
		return nil, venues.ErrInvalidSeatCount
	}

	var (
		updated  *Booking
		oldSlot  slots.Key
		oldSeats int
	)
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			return ErrAlreadyCancelled
		}
		venue, err := venues.Load(tx, booking.VenueID)
		if err != nil {
			return err
		}

		target, ok := venue.Slot(newSlot)
		if !ok {
			return fmt.Errorf("%s: %w", newSlot, venues.ErrInvalidSlot)
		}
		available, err := venue.Available(newSlot)
		if err != nil {
			return err
		}
		if newSlot == booking.SlotKey {
			available += booking.SeatCount
		}
		if newSeatCount > available {
			return &venues.InsufficientCapacityError{SlotKey: newSlot, Requested: newSeatCount, Available: available}
		}

		drift, err := venue.Adjust(booking.SlotKey, -booking.SeatCount)
		if err != nil {
			return err
		}
		if drift > 0 {
			s.log.LogLedgerDrift(ctx, venue.ID, booking.SlotKey.String(), booking.SeatCount-drift, booking.SeatCount)
		}
		if _, err := venue.Adjust(newSlot, newSeatCount); err != nil {
			return err
		}

		oldSlot, oldSeats = booking.SlotKey, booking.SeatCount
		if newSlot != booking.SlotKey {
			if booking.Reminders == nil {
				booking.Reminders = reminders.NewState()
			}
			booking.Reminders.Reset()
		}
		now := s.now()
		booking.SlotKey = newSlot
		booking.Weekday = target.Weekday
		booking.SeatCount = newSeatCount
		booking.UpdatedAt = now
		venue.UpdatedAt = now

		if err := save(tx, booking); err != nil {
			return err
		}
		if err := venues.Save(tx, venue); err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return nil, err
	}

	metrics.RecordBookingOperation(op, metrics.ResultSuccess)
	s.log.LogBookingTransferred(ctx, updated.ID, updated.VenueID, oldSlot.String(), updated.SlotKey.String(), oldSeats, updated.SeatCount)
	s.afterCommit(ctx, updated.VenueID)
	_ = s.notifier.Dispatch(ctx, notifications.NotificationTypeBookingTransferred, updated.notificationContext(),
		map[string]interface{}{
			"previous_slot_key":   oldSlot.String(),
			"previous_seat_count": oldSeats,
		})
	return updated, nil
}

// CancelBooking releases the booking's seats. Cancelling a cancelled booking
// succeeds without touching the ledger.
func (s *service) CancelBooking(ctx context.Context, id, reason string) (*Booking, error) {
	const op = "cancel"

	var (
		result  *Booking
		changed bool
	)
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		changed = false
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			result = booking
			return nil
		}

		venue, err := venues.Load(tx, booking.VenueID)
		if err != nil {
			return err
		}
		s.release(ctx, venue, booking)

		now := s.now()
		booking.Status = StatusCancelled
		booking.CancelledAt = &now
		booking.CancellationReason = reason
		booking.UpdatedAt = now
		venue.UpdatedAt = now

		if err := save(tx, booking); err != nil {
			return err
		}
		if err := venues.Save(tx, venue); err != nil {
			return err
		}
		result, changed = booking, true
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return nil, err
	}

	if !changed {
		metrics.RecordBookingOperation(op, metrics.ResultNoop)
		return result, nil
	}

	metrics.RecordBookingOperation(op, metrics.ResultSuccess)
	s.log.LogBookingCancelled(ctx, result.ID, result.VenueID, result.SlotKey.String(), reason)
	s.afterCommit(ctx, result.VenueID)
	_ = s.notifier.Dispatch(ctx, notifications.NotificationTypeBookingCancelled, result.notificationContext(),
		map[string]interface{}{"reason": reason})
	return result, nil
}

func (s *service) DeleteBooking(ctx context.Context, id string) (*Booking, error) {
	const op = "delete"

	var deleted *Booking
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}

		if booking.Status.HoldsSeats() {
			venue, err := venues.Load(tx, booking.VenueID)
			if err != nil && !errors.Is(err, venues.ErrVenueNotFound) {
				return err
			}
			if venue != nil {
				s.release(ctx, venue, booking)
				venue.UpdatedAt = s.now()
				if err := venues.Save(tx, venue); err != nil {
					return err
				}
			}
		}

		if err := tx.Delete(Collection, booking.ID); err != nil {
			return err
		}
		deleted = booking
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return nil, err
	}

	metrics.RecordBookingOperation(op, metrics.ResultSuccess)
	s.log.InfoWithContext(ctx, "Booking Deleted", map[string]interface{}{
		"booking_id": deleted.ID,
		"venue_id":   deleted.VenueID,
		"slot_key":   deleted.SlotKey.String(),
		"seats":      deleted.SeatCount,
	})
	s.afterCommit(ctx, deleted.VenueID)
	return deleted, nil
}

func (s *service) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) VerifyToken(ctx context.Context, id, token string) (*Booking, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(booking.TokenHash), []byte(token)); err != nil {
		return nil, ErrInvalidToken
	}
	return booking, nil
}

func (s *service) ListVenueBookings(ctx context.Context, venueID string) ([]*Booking, error) {
	if _, err := s.venues.Get(ctx, venueID); err != nil {
		return nil, err
	}
	return s.repo.ListByVenue(ctx, venueID)
}

// DueReminders lists the reminder kinds whose window is open right now.
// Cancelled bookings have none.
func (s *service) DueReminders(ctx context.Context, id string) ([]reminders.Kind, error) {
	booking, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return []reminders.Kind{}, nil
	}
	venue, err := s.venues.Get(ctx, booking.VenueID)
	if err != nil {
		return nil, err
	}
	return dueFor(venue, booking, s.now())
}

// MarkReminderSent records kind as sent. The boolean is false when another
// caller got there first, in which case nothing should be sent.
func (s *service) MarkReminderSent(ctx context.Context, id string, kind reminders.Kind) (bool, error) {
	const op = "mark_reminder"

	if !kind.IsValid() {
		return false, reminders.ErrUnknownKind
	}

	var marked bool
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		marked = false
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			return ErrAlreadyCancelled
		}
		if booking.Reminders == nil {
			booking.Reminders = reminders.NewState()
		}
		ok, err := booking.Reminders.Mark(kind, s.now())
		if err != nil || !ok {
			return err
		}
		booking.UpdatedAt = s.now()
		if err := save(tx, booking); err != nil {
			return err
		}
		marked = true
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return false, err
	}
	if marked {
		metrics.RecordReminderMarked(kind.String())
	}
	return marked, nil
}

// SweepReminders claims and publishes every due reminder across all bookings.
// It returns how many notifications went out.
func (s *service) SweepReminders(ctx context.Context) (int, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	venueByID := make(map[string]*venues.Venue)
	sent := 0
	for _, booking := range all {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if booking.Status.IsTerminal() {
			continue
		}

		venue, ok := venueByID[booking.VenueID]
		if !ok {
			venue, err = s.venues.Get(ctx, booking.VenueID)
			if err != nil {
				s.log.ErrorWithContext(ctx, "Reminder sweep could not load venue", err, map[string]interface{}{
					"booking_id": booking.ID,
					"venue_id":   booking.VenueID,
				})
				continue
			}
			venueByID[booking.VenueID] = venue
		}

		// The listing only narrows the candidates; each claim re-checks
		// the stored booking.
		due, err := dueFor(venue, booking, s.now())
		if err != nil {
			s.log.WarnWithContext(ctx, "Reminder sweep skipped booking", map[string]interface{}{
				"booking_id": booking.ID,
				"error":      err.Error(),
			})
			continue
		}

		for _, kind := range due {
			claimed, sentAt, err := s.claimReminder(ctx, booking.ID, booking.SlotKey, kind)
			if err != nil {
				if errors.Is(err, ErrAlreadyCancelled) || errors.Is(err, ErrBookingNotFound) {
					break
				}
				s.log.ErrorWithContext(ctx, "Failed to mark reminder", err, map[string]interface{}{
					"booking_id": booking.ID,
					"kind":       kind.String(),
				})
				continue
			}
			if claimed == nil {
				continue
			}
			if err := s.notifier.Dispatch(ctx, reminderNotification(kind), claimed.notificationContext(),
				map[string]interface{}{"reminder": kind.String(), "reference": claimed.Reference}); err != nil {
				s.releaseReminder(ctx, claimed.ID, kind, sentAt)
				continue
			}
			sent++
		}
	}
	return sent, nil
}

// claimReminder marks kind sent if the stored booking is still on slot and
// kind is due for it now. It returns the booking as stored after the claim,
// or nil when there was nothing to claim.
func (s *service) claimReminder(ctx context.Context, id string, slot slots.Key, kind reminders.Kind) (*Booking, time.Time, error) {
	const op = "mark_reminder"

	var (
		claimed *Booking
		sentAt  time.Time
	)
	err := s.run(ctx, op, func(ctx context.Context, tx docstore.Tx) error {
		claimed = nil
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}
		if booking.Status.IsTerminal() {
			return ErrAlreadyCancelled
		}
		if booking.SlotKey != slot {
			return nil
		}
		venue, err := venues.Load(tx, booking.VenueID)
		if err != nil {
			return err
		}

		now := s.now()
		due, err := dueFor(venue, booking, now)
		if err != nil {
			return err
		}
		if !containsKind(due, kind) {
			return nil
		}
		if booking.Reminders == nil {
			booking.Reminders = reminders.NewState()
		}
		if _, err := booking.Reminders.Mark(kind, now); err != nil {
			return err
		}
		booking.UpdatedAt = now
		if err := save(tx, booking); err != nil {
			return err
		}
		claimed, sentAt = booking, now
		return nil
	})
	if err != nil {
		s.recordOutcome(op, err)
		return nil, time.Time{}, err
	}
	if claimed != nil {
		metrics.RecordReminderMarked(kind.String())
	}
	return claimed, sentAt, nil
}

// releaseReminder undoes a claim whose notification could not be published,
// so a later sweep tries again. A claim that was reset or re-marked since is
// left alone.
func (s *service) releaseReminder(ctx context.Context, id string, kind reminders.Kind, sentAt time.Time) {
	err := s.run(ctx, "release_reminder", func(ctx context.Context, tx docstore.Tx) error {
		booking, err := Load(tx, id)
		if err != nil {
			return err
		}
		if booking.Reminders == nil || !booking.Reminders.Unmark(kind, sentAt) {
			return nil
		}
		booking.UpdatedAt = s.now()
		return save(tx, booking)
	})
	if err != nil && !errors.Is(err, ErrBookingNotFound) {
		s.log.ErrorWithContext(ctx, "Failed to release reminder after publish failure", err, map[string]interface{}{
			"booking_id": id,
			"kind":       kind.String(),
		})
	}
}

func containsKind(list []reminders.Kind, kind reminders.Kind) bool {
	for _, k := range list {
		if k == kind {
			return true
		}
	}
	return false
}

func dueFor(venue *venues.Venue, booking *Booking, now time.Time) ([]reminders.Kind, error) {
	slot, ok := venue.Slot(booking.SlotKey)
	if !ok {
		return nil, fmt.Errorf("%s: %w", booking.SlotKey, venues.ErrInvalidSlot)
	}
	start, err := slot.StartIn(venue.Location())
	if err != nil {
		return nil, err
	}
	state := booking.Reminders
	if state == nil {
		state = reminders.NewState()
	}
	due := state.Due(start, now)
	if due == nil {
		due = []reminders.Kind{}
	}
	return due, nil
}

// release returns a booking's seats to the ledger, reporting drift if the
// ledger held fewer seats than the booking.
func (s *service) release(ctx context.Context, venue *venues.Venue, booking *Booking) {
	drift, _ := venue.Adjust(booking.SlotKey, -booking.SeatCount)
	if drift > 0 {
		s.log.LogLedgerDrift(ctx, venue.ID, booking.SlotKey.String(), booking.SeatCount-drift, booking.SeatCount)
	}
}

func (s *service) afterCommit(ctx context.Context, venueID string) {
	if s.availability != nil {
		s.availability.InvalidateAvailability(ctx, venueID)
	}
}

// run executes fn with optimistic retry and maps an exhausted budget to
// ErrConcurrencyExhausted.
func (s *service) run(ctx context.Context, op string, fn docstore.TxFunc) error {
	r := s.opts.Retrier
	r.OnConflict = func(attempt int, err error) {
		metrics.RecordTxConflict(op)
		s.log.LogConcurrencyConflict(ctx, op, attempt, err)
	}
	started := time.Now()
	defer metrics.ObserveTxDuration(op, started)

	err := r.Run(ctx, s.store, fn)
	if errors.Is(err, docstore.ErrRetriesExhausted) {
		return fmt.Errorf("%w: %v", ErrConcurrencyExhausted, err)
	}
	return err
}

func (s *service) recordOutcome(op string, err error) {
	switch {
	case errors.Is(err, ErrConcurrencyExhausted):
		metrics.RecordBookingOperation(op, metrics.ResultExhausted)
		s.log.Warn("Booking transaction gave up", "operation", op, "error", err.Error())
	case errors.Is(err, venues.ErrInsufficientCapacity),
		errors.Is(err, venues.ErrInvalidSlot),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, venues.ErrVenueNotFound):
		metrics.RecordBookingOperation(op, metrics.ResultRejected)
	default:
		metrics.RecordBookingOperation(op, metrics.ResultError)
	}
}

func (s *service) newToken() (token, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate booking token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), s.opts.TokenCost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash booking token: %w", err)
	}
	return token, string(hashed), nil
}

// generateBookingReference builds a short human-facing reference like
// SLT-20241123-KQZMWA.
func generateBookingReference(key slots.Key) (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	suffix := make([]byte, 6)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		suffix[i] = letters[n.Int64()]
	}
	date := key.Date()
	compact := date[0:4] + date[5:7] + date[8:10]
	return fmt.Sprintf("SLT-%s-%s", compact, string(suffix)), nil
}
