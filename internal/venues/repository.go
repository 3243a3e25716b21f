package venues

import (
	"context"
	"errors"
	"fmt"

	"slotbook/internal/docstore"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context) ([]*Venue, error)
}

type repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) Repository {
	return &repository{store: store}
}

func (r *repository) Get(ctx context.Context, id string) (*Venue, error) {
	var v Venue
	if err := r.store.Get(ctx, Collection, id, &v); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return &v, nil
}

func (r *repository) List(ctx context.Context) ([]*Venue, error) {
	docs, err := r.store.List(ctx, Collection, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	out := make([]*Venue, 0, len(docs))
	for _, doc := range docs {
		var v Venue
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// Load reads a venue inside tx.
func Load(tx docstore.Tx, id string) (*Venue, error) {
	var v Venue
	if err := tx.Get(Collection, id, &v); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to load venue: %w", err)
	}
	if v.Ledger == nil {
		v.Ledger = make(Ledger)
	}
	return &v, nil
}

// Save writes a venue inside tx.
func Save(tx docstore.Tx, v *Venue) error {
	return tx.Set(Collection, v.ID, "", v)
}

// Insert creates a new venue inside tx.
func Insert(tx docstore.Tx, v *Venue) error {
	return tx.Create(Collection, v.ID, "", v)
}
