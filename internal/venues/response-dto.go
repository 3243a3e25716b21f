package venues

import (
	"time"

	"slotbook/internal/slots"
)

type GenerateSlotsResponse struct {
	Venue            *Venue           `json:"venue"`
	Added            []slots.TimeSlot `json:"added"`
	Rejected         []slots.TimeSlot `json:"rejected"`
	RejectedOverlaps int              `json:"rejected_overlaps"`
}

type SlotAvailability struct {
	Key       string `json:"key"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Weekday   string `json:"weekday"`
	Capacity  int    `json:"capacity"`
	Booked    int    `json:"booked"`
	Available int    `json:"available"`
}

type AvailabilityResponse struct {
	VenueID     string             `json:"venue_id"`
	Date        string             `json:"date,omitempty"`
	Slots       []SlotAvailability `json:"slots"`
	GeneratedAt time.Time          `json:"generated_at"`
}

func buildAvailability(v *Venue, date string, now time.Time) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		VenueID:     v.ID,
		Date:        date,
		Slots:       make([]SlotAvailability, 0, len(v.Slots)),
		GeneratedAt: now,
	}
	for _, s := range v.Slots {
		if date != "" && s.Date != date {
			continue
		}
		booked := v.Booked(s.Key())
		resp.Slots = append(resp.Slots, SlotAvailability{
			Key:       s.Key().String(),
			Date:      s.Date,
			Time:      s.Time,
			Weekday:   s.Weekday,
			Capacity:  s.Capacity,
			Booked:    booked,
			Available: max(s.Capacity-booked, 0),
		})
	}
	return resp
}
