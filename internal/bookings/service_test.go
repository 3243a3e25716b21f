package bookings_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"slotbook/internal/bookings"
	"slotbook/internal/docstore"
	"slotbook/internal/notifications"
	"slotbook/internal/reminders"
	"slotbook/internal/slots"
	"slotbook/internal/venues"
	"slotbook/pkg/logger"
)

var (
	tenAM    = slots.NewKey("2024-11-23", "10:00")
	elevenAM = slots.NewKey("2024-11-23", "11:00")
)

type sentNotification struct {
	Type    notifications.NotificationType
	Booking notifications.BookingContext
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
	// after runs once a notification is recorded, outside the lock.
	after func(sentNotification)
}

func (r *recordingNotifier) Dispatch(_ context.Context, t notifications.NotificationType, b notifications.BookingContext, _ map[string]interface{}) error {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return err
	}
	n := sentNotification{Type: t, Booking: b}
	r.sent = append(r.sent, n)
	after := r.after
	r.mu.Unlock()

	if after != nil {
		after(n)
	}
	return nil
}

func (r *recordingNotifier) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *recordingNotifier) onDispatch(fn func(sentNotification)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = fn
}

func (r *recordingNotifier) ofType(t notifications.NotificationType) []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentNotification
	for _, s := range r.sent {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

func (r *recordingNotifier) count(t notifications.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sent {
		if s.Type == t {
			n++
		}
	}
	return n
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store    docstore.Store
	venues   venues.Service
	bookings bookings.Service
	notifier *recordingNotifier
	clock    *clock
	venueID  string
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	return newFixtureWithStore(t, docstore.NewMemory(), capacity)
}

func newFixtureWithStore(t *testing.T, store docstore.Store, capacity int) *fixture {
	t.Helper()
	ctx := context.Background()

	venueSvc := venues.NewService(store, nil, docstore.DefaultRetrier(), logger.Discard())
	venue, err := venueSvc.CreateVenue(ctx, venues.CreateVenueRequest{Name: "Harbour Hall"})
	require.NoError(t, err)
	_, err = venueSvc.GenerateSlots(ctx, venue.ID, []slots.Rule{{
		Date: "2024-11-23", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 60, Capacity: capacity,
	}})
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		venues:   venueSvc,
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)},
		venueID:  venue.ID,
	}
	f.bookings = bookings.NewService(store, f.notifier, venueSvc, logger.Discard(), bookings.Options{
		Retrier:   docstore.Retrier{MaxAttempts: 100, Backoff: time.Millisecond},
		TokenCost: bcrypt.MinCost,
		Now:       f.clock.Now,
	})
	return f
}

func (f *fixture) book(t *testing.T, key slots.Key, seats int) (*bookings.Booking, string) {
	t.Helper()
	b, token, err := f.bookings.CreateBooking(context.Background(), f.venueID, request(key, seats))
	require.NoError(t, err)
	return b, token
}

func (f *fixture) booked(t *testing.T, key slots.Key) int {
	t.Helper()
	v, err := f.venues.GetVenue(context.Background(), f.venueID)
	require.NoError(t, err)
	return v.Booked(key)
}

func request(key slots.Key, seats int) bookings.CreateBookingRequest {
	return bookings.CreateBookingRequest{
		SlotKey:   key.String(),
		SeatCount: seats,
		Contact:   bookings.ContactRequest{Name: "Ada", Email: "ada@example.com"},
	}
}

func TestCreateBooking_CapacityScenario(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	f.book(t, tenAM, 18)

	_, _, err := f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 3))
	var capacityErr *venues.InsufficientCapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 2, capacityErr.Available)
	assert.ErrorIs(t, err, venues.ErrInsufficientCapacity)

	f.book(t, tenAM, 2)
	assert.Equal(t, 20, f.booked(t, tenAM))

	_, _, err = f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 3))
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 0, capacityErr.Available)
}

func TestCreateBooking_PersistsConfirmedBooking(t *testing.T) {
	f := newFixture(t, 20)
	b, token := f.book(t, tenAM, 4)

	assert.Equal(t, bookings.StatusConfirmed, b.Status)
	assert.Equal(t, "Sat", b.Weekday)
	assert.Regexp(t, `^SLT-20241123-[A-Z]{6}$`, b.Reference)
	assert.NotEmpty(t, token)
	assert.NotContains(t, b.TokenHash, token)
	assert.True(t, b.Reminders.Sent(reminders.KindConfirmation))
	assert.Equal(t, 1, f.notifier.count(notifications.NotificationTypeBookingConfirmed))

	list, err := f.bookings.ListVenueBookings(context.Background(), f.venueID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestCreateBooking_FailureLeavesNoTrace(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	_, _, err := f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 6))
	assert.ErrorIs(t, err, venues.ErrInsufficientCapacity)

	_, _, err = f.bookings.CreateBooking(ctx, f.venueID, request(slots.NewKey("2024-11-23", "15:00"), 1))
	assert.ErrorIs(t, err, venues.ErrInvalidSlot)

	_, _, err = f.bookings.CreateBooking(ctx, "missing", request(tenAM, 1))
	assert.ErrorIs(t, err, venues.ErrVenueNotFound)

	_, _, err = f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 0))
	assert.ErrorIs(t, err, venues.ErrInvalidSeatCount)

	assert.Equal(t, 0, f.booked(t, tenAM))
	list, err := f.bookings.ListVenueBookings(ctx, f.venueID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, f.notifier.count(notifications.NotificationTypeBookingConfirmed))
}

func TestCreateBooking_ConcurrentRequestsNeverOversell(t *testing.T) {
	const capacity, clients = 20, 30
	f := newFixture(t, capacity)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		errs      []error
	)
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.bookings.CreateBooking(context.Background(), f.venueID, request(tenAM, 1))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, capacity, f.booked(t, tenAM))
	for _, err := range errs {
		assert.ErrorIs(t, err, venues.ErrInsufficientCapacity)
	}

	list, err := f.bookings.ListVenueBookings(context.Background(), f.venueID)
	require.NoError(t, err)
	assert.Len(t, list, capacity)
}

func TestConcurrentTransfersCancelsAndCreatesConserveSeats(t *testing.T) {
	const capacity = 20
	f := newFixture(t, capacity)
	ctx := context.Background()

	var toCancel, toMove []*bookings.Booking
	for i := 0; i < 5; i++ {
		b, _ := f.book(t, tenAM, 1)
		toCancel = append(toCancel, b)
	}
	for i := 0; i < 10; i++ {
		b, _ := f.book(t, elevenAM, 1)
		toMove = append(toMove, b)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range toCancel {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.bookings.CancelBooking(ctx, id, "")
			record(err)
		}(b.ID)
	}
	for _, b := range toMove {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.bookings.TransferBooking(ctx, id, tenAM, 1)
			record(err)
		}(b.ID)
	}
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 1))
			record(err)
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, venues.ErrInsufficientCapacity)
	}

	list, err := f.bookings.ListVenueBookings(ctx, f.venueID)
	require.NoError(t, err)
	held := map[slots.Key]int{}
	for _, b := range list {
		if b.Status.HoldsSeats() {
			held[b.SlotKey] += b.SeatCount
		}
	}
	assert.Equal(t, held[tenAM], f.booked(t, tenAM))
	assert.Equal(t, held[elevenAM], f.booked(t, elevenAM))
	assert.LessOrEqual(t, f.booked(t, tenAM), capacity)
	// Moved bookings hold their seat on one slot or the other, never both.
	assert.Equal(t, len(toMove)+created, held[tenAM]+held[elevenAM])
	for _, b := range toCancel {
		stored, err := f.bookings.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, bookings.StatusCancelled, stored.Status)
	}
}

func TestCancelBooking_Idempotent(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 5)

	cancelled, err := f.bookings.CancelBooking(ctx, b.ID, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, cancelled.Status)
	assert.Equal(t, "plans changed", cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 0, f.booked(t, tenAM))

	again, err := f.bookings.CancelBooking(ctx, b.ID, "twice")
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusCancelled, again.Status)
	assert.Equal(t, "plans changed", again.CancellationReason)
	assert.Equal(t, 0, f.booked(t, tenAM))
	assert.Equal(t, 1, f.notifier.count(notifications.NotificationTypeBookingCancelled))

	_, err = f.bookings.CancelBooking(ctx, "missing", "")
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestCancelBooking_DoesNotReleaseOtherBookings(t *testing.T) {
	f := newFixture(t, 20)
	b, _ := f.book(t, tenAM, 5)
	f.book(t, tenAM, 3)

	_, err := f.bookings.CancelBooking(context.Background(), b.ID, "")
	require.NoError(t, err)
	_, err = f.bookings.CancelBooking(context.Background(), b.ID, "")
	require.NoError(t, err)

	assert.Equal(t, 3, f.booked(t, tenAM))
}

func TestTransferBooking_ConservesSeats(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 4)

	moved, err := f.bookings.TransferBooking(ctx, b.ID, elevenAM, 6)
	require.NoError(t, err)
	assert.Equal(t, elevenAM, moved.SlotKey)
	assert.Equal(t, 6, moved.SeatCount)
	assert.Equal(t, 0, f.booked(t, tenAM))
	assert.Equal(t, 6, f.booked(t, elevenAM))
	assert.False(t, moved.Reminders.Sent(reminders.KindConfirmation))
	assert.Equal(t, 1, f.notifier.count(notifications.NotificationTypeBookingTransferred))
}

func TestTransferBooking_SameSlotCountsOwnSeats(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 18)

	grown, err := f.bookings.TransferBooking(ctx, b.ID, tenAM, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, grown.SeatCount)
	assert.True(t, grown.Reminders.Sent(reminders.KindConfirmation))
	assert.Equal(t, 20, f.booked(t, tenAM))

	_, err = f.bookings.TransferBooking(ctx, b.ID, tenAM, 21)
	var capacityErr *venues.InsufficientCapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 20, capacityErr.Available)
	assert.Equal(t, 20, f.booked(t, tenAM))
}

func TestTransferBooking_RejectedTransferChangesNothing(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 2)
	f.book(t, elevenAM, 4)

	_, err := f.bookings.TransferBooking(ctx, b.ID, elevenAM, 2)
	var capacityErr *venues.InsufficientCapacityError
	require.ErrorAs(t, err, &capacityErr)
	assert.Equal(t, 1, capacityErr.Available)

	assert.Equal(t, 2, f.booked(t, tenAM))
	assert.Equal(t, 4, f.booked(t, elevenAM))
	stored, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, tenAM, stored.SlotKey)

	_, err = f.bookings.TransferBooking(ctx, b.ID, slots.NewKey("2024-11-24", "10:00"), 1)
	assert.ErrorIs(t, err, venues.ErrInvalidSlot)
}

func TestTransferBooking_CancelledBookingRejected(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 2)
	_, err := f.bookings.CancelBooking(ctx, b.ID, "")
	require.NoError(t, err)

	_, err = f.bookings.TransferBooking(ctx, b.ID, elevenAM, 2)
	assert.ErrorIs(t, err, bookings.ErrAlreadyCancelled)
	assert.Equal(t, 0, f.booked(t, elevenAM))
}

func TestDeleteBooking_ReleasesSeats(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	confirmed, _ := f.book(t, tenAM, 5)
	cancelled, _ := f.book(t, tenAM, 3)
	_, err := f.bookings.CancelBooking(ctx, cancelled.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 5, f.booked(t, tenAM))

	_, err = f.bookings.DeleteBooking(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, f.booked(t, tenAM))

	deleted, err := f.bookings.DeleteBooking(ctx, confirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmed.ID, deleted.ID)
	assert.Equal(t, 0, f.booked(t, tenAM))

	_, err = f.bookings.GetBooking(ctx, confirmed.ID)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestVerifyToken(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, token := f.book(t, tenAM, 1)

	got, err := f.bookings.VerifyToken(ctx, b.ID, token)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = f.bookings.VerifyToken(ctx, b.ID, "wrong")
	assert.ErrorIs(t, err, bookings.ErrInvalidToken)

	_, err = f.bookings.VerifyToken(ctx, b.ID, "")
	assert.ErrorIs(t, err, bookings.ErrInvalidToken)

	_, err = f.bookings.VerifyToken(ctx, "missing", token)
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}

func TestReminders_DueAndMark(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 2)

	f.clock.Set(time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC))
	due, err := f.bookings.DueReminders(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []reminders.Kind{reminders.KindOneDayBefore}, due)

	notify, err := f.bookings.MarkReminderSent(ctx, b.ID, reminders.KindOneDayBefore)
	require.NoError(t, err)
	assert.True(t, notify)

	notify, err = f.bookings.MarkReminderSent(ctx, b.ID, reminders.KindOneDayBefore)
	require.NoError(t, err)
	assert.False(t, notify)

	due, err = f.bookings.DueReminders(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = f.bookings.MarkReminderSent(ctx, b.ID, reminders.Kind("weekly"))
	assert.ErrorIs(t, err, reminders.ErrUnknownKind)
}

func TestReminders_CancelledBooking(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 2)
	_, err := f.bookings.CancelBooking(ctx, b.ID, "")
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC))
	due, err := f.bookings.DueReminders(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, due)

	_, err = f.bookings.MarkReminderSent(ctx, b.ID, reminders.KindOneDayBefore)
	assert.ErrorIs(t, err, bookings.ErrAlreadyCancelled)
}

func TestSweepReminders_SendsEachReminderOnce(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	f.book(t, tenAM, 2)
	f.book(t, elevenAM, 1)
	cancelled, _ := f.book(t, elevenAM, 1)
	_, err := f.bookings.CancelBooking(ctx, cancelled.ID, "")
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC))
	sent, err := f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, f.notifier.count(notifications.NotificationTypeReminderOneDay))

	sent, err = f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSweepReminders_TransferMidSweepKeepsNewSlotReminders(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	later := slots.NewKey("2024-12-07", "10:00")
	_, err := f.venues.GenerateSlots(ctx, f.venueID, []slots.Rule{{
		Date: "2024-12-07", StartTime: "10:00", EndTime: "11:00", SlotDurationMinutes: 60, Capacity: 20,
	}})
	require.NoError(t, err)

	b, _ := f.book(t, tenAM, 2)
	f.clock.Set(time.Date(2024, 11, 23, 10, 15, 0, 0, time.UTC))
	_, err = f.bookings.TransferBooking(ctx, b.ID, elevenAM, 2)
	require.NoError(t, err)

	due, err := f.bookings.DueReminders(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, []reminders.Kind{reminders.KindConfirmation, reminders.KindOneHourBefore}, due)

	// The guest moves to a later date while the confirmation is going out.
	var once sync.Once
	f.notifier.onDispatch(func(n sentNotification) {
		if n.Type != notifications.NotificationTypeBookingConfirmed {
			return
		}
		once.Do(func() {
			_, err := f.bookings.TransferBooking(ctx, b.ID, later, 2)
			assert.NoError(t, err)
		})
	})

	sent, err := f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	confirmations := f.notifier.ofType(notifications.NotificationTypeBookingConfirmed)
	require.Len(t, confirmations, 2)
	assert.Equal(t, elevenAM.String(), confirmations[1].Booking.SlotKey)
	assert.Empty(t, f.notifier.ofType(notifications.NotificationTypeReminderOneHour))

	stored, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, later, stored.SlotKey)
	for _, k := range reminders.Kinds {
		assert.False(t, stored.Reminders.Sent(k), k)
	}

	f.notifier.onDispatch(nil)
	f.clock.Set(time.Date(2024, 12, 7, 9, 30, 0, 0, time.UTC))
	due, err = f.bookings.DueReminders(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []reminders.Kind{reminders.KindConfirmation, reminders.KindOneHourBefore}, due)

	sent, err = f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	oneHour := f.notifier.ofType(notifications.NotificationTypeReminderOneHour)
	require.Len(t, oneHour, 1)
	assert.Equal(t, later.String(), oneHour[0].Booking.SlotKey)
}

func TestCreateBooking_FailedConfirmationIsRetriedBySweep(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	f.notifier.fail(errors.New("broker down"))
	b, _, err := f.bookings.CreateBooking(ctx, f.venueID, request(tenAM, 2))
	require.NoError(t, err)
	assert.False(t, b.Reminders.Sent(reminders.KindConfirmation))
	assert.Equal(t, 2, f.booked(t, tenAM))

	stored, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reminders.Sent(reminders.KindConfirmation))

	f.notifier.fail(nil)
	sent, err := f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, f.notifier.count(notifications.NotificationTypeBookingConfirmed))

	sent, err = f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSweepReminders_PublishFailureReleasesClaim(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()
	b, _ := f.book(t, tenAM, 2)

	f.clock.Set(time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC))
	f.notifier.fail(errors.New("broker down"))
	sent, err := f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	stored, err := f.bookings.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.Reminders.Sent(reminders.KindOneDayBefore))

	f.notifier.fail(nil)
	sent, err = f.bookings.SweepReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, f.notifier.count(notifications.NotificationTypeReminderOneDay))
}

// conflictingStore commits nothing, ever.
type conflictingStore struct {
	docstore.Store
	enabled bool
}

func (s *conflictingStore) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	if s.enabled {
		return docstore.ErrConflict
	}
	return s.Store.RunTransaction(ctx, fn)
}

func TestCreateBooking_RetriesExhausted(t *testing.T) {
	store := &conflictingStore{Store: docstore.NewMemory()}
	f := newFixtureWithStore(t, store, 20)
	svc := bookings.NewService(store, f.notifier, f.venues, logger.Discard(), bookings.Options{
		Retrier:   docstore.Retrier{MaxAttempts: 3},
		TokenCost: bcrypt.MinCost,
	})
	store.enabled = true

	_, _, err := svc.CreateBooking(context.Background(), f.venueID, request(tenAM, 1))
	assert.ErrorIs(t, err, bookings.ErrConcurrencyExhausted)

	store.enabled = false
	assert.Equal(t, 0, f.booked(t, tenAM))
	assert.Zero(t, f.notifier.count(notifications.NotificationTypeBookingConfirmed))
}
