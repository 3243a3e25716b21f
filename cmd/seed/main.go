package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"slotbook/api/routes"
	"slotbook/internal/bookings"
	"slotbook/internal/docstore"
	"slotbook/internal/notifications"
	"slotbook/internal/shared/config"
	"slotbook/internal/shared/database"
	"slotbook/internal/shared/middleware"
	"slotbook/internal/slots"
	"slotbook/internal/venues"
	"slotbook/pkg/cache"
	"slotbook/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
)

// Days of slots generated per venue, starting tomorrow
const seedDays = 7

type Seeder struct {
	cfg      *config.Config
	db       *database.DB
	services *routes.Services
}

func main() {
	fmt.Println("🌱 Starting Slotbook Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	appLogger := logger.GetDefault()
	dispatcher := notifications.NewDispatcher(notifications.NewLogPublisher(appLogger), appLogger)
	seeder := &Seeder{
		cfg:      cfg,
		db:       db,
		services: routes.NewServices(cfg, docstore.NewGorm(db.PostgreSQL), cache.NewService(db.Redis), dispatcher, appLogger),
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	token, err := seeder.AdminToken()
	if err != nil {
		log.Fatalf("Failed to sign admin token: %v", err)
	}
	fmt.Printf("\n🔑 Admin token (24h):\n%s\n", token)
	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase empties the documents table and the cache
func (s *Seeder) CleanDatabase() error {
	if err := s.db.PostgreSQL.Exec("TRUNCATE TABLE documents").Error; err != nil {
		return fmt.Errorf("failed to truncate documents: %w", err)
	}
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(context.Background()).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}
	return nil
}

// SeedAll creates venues with a week of slots and a few bookings
func (s *Seeder) SeedAll(ctx context.Context) error {
	venueData := []struct {
		name     string
		timezone string
		start    string
		end      string
		minutes  int
		capacity int
	}{
		{"Harbour Climbing Gym", "Europe/London", "09:00", "18:00", 60, 20},
		{"Riverside Escape Rooms", "America/New_York", "12:00", "22:00", 90, 6},
		{"Old Town Pottery Studio", "Europe/Berlin", "10:00", "16:00", 120, 12},
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	for _, data := range venueData {
		venue, err := s.services.Venues.CreateVenue(ctx, venues.CreateVenueRequest{
			Name:     data.name,
			Timezone: data.timezone,
		})
		if err != nil {
			return fmt.Errorf("failed to create venue %s: %w", data.name, err)
		}

		rules := make([]slots.Rule, 0, seedDays)
		for d := 0; d < seedDays; d++ {
			rules = append(rules, slots.Rule{
				Date:                tomorrow.AddDate(0, 0, d).Format(slots.DateLayout),
				StartTime:           data.start,
				EndTime:             data.end,
				SlotDurationMinutes: data.minutes,
				Capacity:            data.capacity,
			})
		}

		generated, err := s.services.Venues.GenerateSlots(ctx, venue.ID, rules)
		if err != nil {
			return fmt.Errorf("failed to generate slots for %s: %w", data.name, err)
		}
		fmt.Printf("    ✅ Created venue: %s (%d slots)\n", data.name, len(generated.Added))

		if len(generated.Added) == 0 {
			continue
		}
		if err := s.seedBookings(ctx, venue.ID, generated.Added[0]); err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) seedBookings(ctx context.Context, venueID string, slot slots.TimeSlot) error {
	guests := []bookings.ContactRequest{
		{Name: "Ada Lovelace", Email: "ada@example.com"},
		{Name: "Alan Turing", Email: "alan@example.com"},
	}
	for i, guest := range guests {
		booking, token, err := s.services.Bookings.CreateBooking(ctx, venueID, bookings.CreateBookingRequest{
			SlotKey:   string(slot.Key()),
			SeatCount: i + 1,
			Contact:   guest,
		})
		if err != nil {
			return fmt.Errorf("failed to book %s for %s: %w", slot.Key(), guest.Email, err)
		}
		fmt.Printf("      🎟  %s %s seats=%d token=%s\n", booking.Reference, slot.Key(), booking.SeatCount, token)
	}
	return nil
}

// AdminToken signs an access token accepted by the admin routes
func (s *Seeder) AdminToken() (string, error) {
	claims := jwt.MapClaims{
		"type":  "access",
		"role":  middleware.RoleAdmin,
		"email": "admin@slotbook.local",
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
}
