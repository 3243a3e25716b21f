package bookings

import (
	"context"
	"errors"
	"fmt"

	"slotbook/internal/docstore"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	ListByVenue(ctx context.Context, venueID string) ([]*Booking, error)
	ListAll(ctx context.Context) ([]*Booking, error)
}

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) Repository {
	return &repository{store: store}
}

func (r *repository) Get(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	if err := r.store.Get(ctx, Collection, id, &b); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *repository) ListByVenue(ctx context.Context, venueID string) ([]*Booking, error) {
	docs, err := r.store.List(ctx, Collection, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return decodeAll(docs)
}

func (r *repository) ListAll(ctx context.Context) ([]*Booking, error) {
	docs, err := r.store.List(ctx, Collection, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return decodeAll(docs)
}

// Load reads a booking inside tx.
func Load(tx docstore.Tx, id string) (*Booking, error) {
	var b Booking
	if err := tx.Get(Collection, id, &b); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &b, nil
}

// ListForVenue reads every booking of a venue inside tx.
func ListForVenue(tx docstore.Tx, venueID string) ([]*Booking, error) {
	docs, err := tx.List(Collection, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return decodeAll(docs)
}

func save(tx docstore.Tx, b *Booking) error {
	return tx.Set(Collection, b.ID, b.VenueID, b)
}

func decodeAll(docs []docstore.Document) ([]*Booking, error) {
	out := make([]*Booking, 0, len(docs))
	for _, doc := range docs {
		var b Booking
		if err := doc.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, nil
}
