package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/eventhub/internal/model"
)

const day = 24 * time.Hour

// DemoEvents returns the demo catalogue with dates relative to now, so the
// listing always has upcoming events after a restart.
func DemoEvents(now time.Time) []model.Event {
	now = now.UTC()
	ts := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	return []model.Event{
		{
			ID:          "1",
			Title:       "Tech Conference 2025",
			Description: "Annual technology conference featuring the latest trends in AI, blockchain, and web development. Join industry leaders, developers, and innovators for three days of presentations, workshops, and networking.",
			Category:    "Technology",
			Address:     "123 Tech Street, Convention Center",
			City:        "San Francisco",
			Date:        now.Add(30 * day),
			Capacity:    500,
			BookedSeats: 120,
			Price:       299,
			Organizer:   "org-1",
			ImageURL:    "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800",
			CreatedAt:   ts("2024-01-01T00:00:00Z"),
		},
		{
			ID:          "2",
			Title:       "Summer Music Festival",
			Description: "Three days of amazing music with top artists from around the world. Live performances, new talent, food trucks and craft vendors.",
			Category:    "Music",
			Address:     "Central Park, Main Stage Area",
			City:        "New York",
			Date:        now.Add(90 * day),
			Capacity:    10000,
			BookedSeats: 3500,
			Price:       150,
			Organizer:   "org-2",
			ImageURL:    "https://images.unsplash.com/photo-1493225457124-a3eb161ffa5f?w=800",
			CreatedAt:   ts("2024-01-15T00:00:00Z"),
		},
		{
			ID:          "3",
			Title:       "Art Gallery Opening",
			Description: "Exclusive opening of contemporary art exhibition featuring local artists. Enjoy wine, networking, and artwork from emerging and established artists.",
			Category:    "Art",
			Address:     "456 Gallery Ave, Downtown Arts District",
			City:        "Los Angeles",
			Date:        now.Add(7 * day),
			Capacity:    100,
			BookedSeats: 45,
			Price:       0,
			Organizer:   "org-3",
			ImageURL:    "https://images.unsplash.com/photo-1578662996442-48f60103fc96?w=800",
			CreatedAt:   ts("2024-01-20T00:00:00Z"),
		},
		{
			ID:          "4",
			Title:       "Food & Wine Festival",
			Description: "Taste the finest cuisine and wines from renowned chefs and vineyards. Sample dishes from 50+ restaurants and wines from award-winning wineries.",
			Category:    "Food",
			Address:     "789 Culinary Blvd, Waterfront Park",
			City:        "Chicago",
			Date:        now.Add(60 * day),
			Capacity:    300,
			BookedSeats: 85,
			Price:       75,
			Organizer:   "org-4",
			ImageURL:    "https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=800",
			CreatedAt:   ts("2024-02-01T00:00:00Z"),
		},
		{
			ID:          "5",
			Title:       "Marathon Championship",
			Description: "Annual city marathon with prizes for top finishers in multiple categories. Join thousands of runners on a scenic route through the city.",
			Category:    "Sports",
			Address:     "City Center, Starting Line Plaza",
			City:        "Boston",
			Date:        now.Add(120 * day),
			Capacity:    2000,
			BookedSeats: 1200,
			Price:       50,
			Organizer:   "org-5",
			ImageURL:    "https://images.unsplash.com/photo-1544657616-f4420c6c4e90?w=800",
			CreatedAt:   ts("2024-02-10T00:00:00Z"),
		},
		{
			ID:          "6",
			Title:       "Business Conference",
			Description: "Network with industry leaders and learn about the latest business trends. Keynote speakers, panel discussions and networking sessions.",
			Category:    "Business",
			Address:     "Convention Center, Grand Ballroom",
			City:        "Seattle",
			Date:        now.Add(150 * day),
			Capacity:    300,
			BookedSeats: 45,
			Price:       150,
			Organizer:   "org-6",
			ImageURL:    "https://images.unsplash.com/photo-1515169067868-5387ec356754?w=800",
			CreatedAt:   ts("2024-03-10T00:00:00Z"),
		},
		{
			ID:          "7",
			Title:       "Stand-up Comedy Night",
			Description: "Laugh out loud with the best comedians in town. Headliner acts and local comedy talent in an intimate venue.",
			Category:    "Entertainment",
			Address:     "Comedy Club, Main Theater",
			City:        "Austin",
			Date:        now.Add(180 * day),
			Capacity:    150,
			BookedSeats: 90,
			Price:       35,
			Organizer:   "org-7",
			ImageURL:    "https://images.unsplash.com/photo-1541532713592-79a0317b6b77?w=800",
			CreatedAt:   ts("2024-04-05T00:00:00Z"),
		},
		{
			ID:          "8",
			Title:       "Photography Workshop",
			Description: "Learn professional photography techniques from experienced photographers. Hands-on workshop covering composition, lighting, and post-processing.",
			Category:    "Workshop",
			Address:     "Studio Space, Creative District",
			City:        "Portland",
			Date:        now.Add(210 * day),
			Capacity:    25,
			BookedSeats: 12,
			Price:       80,
			Organizer:   "org-8",
			ImageURL:    "https://images.unsplash.com/photo-1542038784456-1ea8e732331d?w=800",
			CreatedAt:   ts("2024-05-01T00:00:00Z"),
		},
	}
}

// DemoUser is a seed account whose password is hashed at startup.
type DemoUser struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// DemoUsers lists the accounts created when demo data is enabled.
func DemoUsers() []DemoUser {
	return []DemoUser{
		{Email: "user@example.com", Password: "password123", Name: "Demo User", Role: model.RoleUser},
		{Email: "organizer@example.com", Password: "password123", Name: "Demo Organizer", Role: model.RoleOrganizer},
	}
}

// eventInserter is implemented by stores that can take pre-populated rows.
type eventInserter interface {
	Insert(ctx context.Context, e model.Event) error
}

// SeedUsers creates the demo accounts, skipping ones that already exist.
// hash turns a plain password into the stored hash.
func SeedUsers(ctx context.Context, users UserStore, hash func(string) (string, error)) error {
	for _, du := range DemoUsers() {
		if _, ok, err := users.GetByEmail(ctx, du.Email); err != nil {
			return err
		} else if ok {
			continue
		}
		h, err := hash(du.Password)
		if err != nil {
			return fmt.Errorf("hash demo password: %w", err)
		}
		_, err = users.Create(ctx, model.User{
			Email:        du.Email,
			PasswordHash: h,
			Name:         du.Name,
			Role:         du.Role,
			Provider:     model.ProviderCredentials,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", du.Email, err)
		}
	}
	return nil
}

// SeedEvents writes the demo catalogue into an event store that supports
// raw inserts. Existing ids are left untouched.
func SeedEvents(ctx context.Context, store EventStore, now time.Time) error {
	ins, ok := store.(eventInserter)
	if !ok {
		return fmt.Errorf("event store %T cannot be seeded", store)
	}
	for _, e := range DemoEvents(now) {
		if err := ins.Insert(ctx, e); err != nil {
			return fmt.Errorf("seed event %s: %w", e.ID, err)
		}
	}
	return nil
}
