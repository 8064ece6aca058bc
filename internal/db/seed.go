package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/us-matching/internal/logger"
)

var seedTables = []string{
	"notifications", "chat_messages", "chat_threads", "matches", "likes", "photos", "profiles",
}

// Reset wipes every table owned by this service, children first.
func Reset(db *gorm.DB) error {
	for _, table := range seedTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedTestData resets the database and populates it with demo profiles, photos and likes.
//
// Behavior:
//  1. Clears every table.
//  2. Creates `users` active profiles (every 10th one inactive, every 7th one without photos).
//  3. Each profile likes ~8 others; every 3rd like is made reciprocal and gets a match.
func SeedTestData(db *gorm.DB, users int, r *rand.Rand) error {
	if users < 2 {
		return fmt.Errorf("need at least 2 users, got %d", users)
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	// --- Fresh start ---
	if err := Reset(db); err != nil {
		return err
	}
	logger.Info("cleared existing data")

	genders := []string{"woman", "man", "nonbinary"}
	ids := make([]string, 0, users)
	base := Now().Add(-time.Duration(users) * time.Hour)

	// --- Seed profiles ---
	for i := 1; i <= users; i++ {
		id := fmt.Sprintf("user-%03d", i)
		ids = append(ids, id)

		birth := time.Date(1985+r.Intn(20), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC)
		lat := 40.0 + r.Float64()
		lng := -74.0 + r.Float64()
		p := Profile{
			UserID:      id,
			DisplayName: fmt.Sprintf("User %d", i),
			Bio:         fmt.Sprintf("Hi, I'm user %d.", i),
			Birthdate:   &birth,
			Gender:      genders[i%len(genders)],
			LookingFor:  "everyone",
			Latitude:    &lat,
			Longitude:   &lng,
			RadiusKm:    10 + r.Intn(90),
			IsActive:    i%10 != 0,
			CreatedAt:   base,
			UpdatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if i%7 != 0 {
			p.Photos = []Photo{
				{URL: fmt.Sprintf("https://picsum.photos/seed/%s-1/600/800", id), StorageKey: "photos/" + id + "/1.jpg", IsPrimary: true, Position: 0},
				{URL: fmt.Sprintf("https://picsum.photos/seed/%s-2/600/800", id), StorageKey: "photos/" + id + "/2.jpg", Position: 1},
				{URL: fmt.Sprintf("https://picsum.photos/seed/%s-v/600/800", id), StorageKey: "photos/" + id + "/verify.jpg", IsVerification: true, Position: 2},
			}
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	logger.Info("seeded profiles", "count", users)

	// --- Seed likes ---
	counter := 0
	for _, from := range ids {
		for j := 0; j < 8; j++ {
			to := ids[r.Intn(len(ids))]
			if from == to {
				continue
			}

			if err := seedLike(db, from, to, r.Intn(10) == 0); err != nil {
				return err
			}

			// guarantee a reciprocal pair every 3rd like
			if counter%3 == 0 {
				if err := seedLike(db, to, from, false); err != nil {
					return err
				}
				if err := seedMatch(db, from, to); err != nil {
					return err
				}
			}
			counter++
		}
	}
	logger.Info("seeded likes", "count", counter)

	return nil
}

// SeedMinimalTestData wipes the DB and inserts a small deterministic dataset.
//
// Dataset:
//   - alice, bob, carol: active with photos
//   - dave: active, verification photo only (never shown in feeds)
//   - erin: inactive with photos
//   - bob -> alice like (pending for alice)
//   - alice <-> carol likes and their match
func SeedMinimalTestData(db *gorm.DB) error {
	if err := Reset(db); err != nil {
		return err
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	profiles := []Profile{
		minimalProfile("alice", "Alice", true, base.Add(5*time.Minute), false),
		minimalProfile("bob", "Bob", true, base.Add(4*time.Minute), false),
		minimalProfile("carol", "Carol", true, base.Add(3*time.Minute), false),
		minimalProfile("dave", "Dave", true, base.Add(2*time.Minute), true),
		minimalProfile("erin", "Erin", false, base.Add(1*time.Minute), false),
	}
	if err := db.Create(&profiles).Error; err != nil {
		return err
	}

	likes := []Like{
		{FromUser: "bob", ToUser: "alice", CreatedAt: base.Add(10 * time.Minute)},
		{FromUser: "alice", ToUser: "carol", CreatedAt: base.Add(11 * time.Minute)},
		{FromUser: "carol", ToUser: "alice", IsSuperlike: true, CreatedAt: base.Add(12 * time.Minute)},
	}
	if err := db.Create(&likes).Error; err != nil {
		return err
	}

	return db.Create(&Match{UserA: "alice", UserB: "carol", MatchedAt: base.Add(12 * time.Minute)}).Error
}

func minimalProfile(id, name string, active bool, updated time.Time, verificationOnly bool) Profile {
	p := Profile{
		UserID:      id,
		DisplayName: name,
		Bio:         "Hello from " + name,
		Gender:      "nonbinary",
		LookingFor:  "everyone",
		RadiusKm:    25,
		IsActive:    active,
		CreatedAt:   updated,
		UpdatedAt:   updated,
	}
	if verificationOnly {
		p.Photos = []Photo{{URL: "https://cdn.example.com/" + id + "/verify.jpg", IsVerification: true}}
		return p
	}
	p.Photos = []Photo{
		{URL: "https://cdn.example.com/" + id + "/1.jpg", IsPrimary: true, Position: 0},
		{URL: "https://cdn.example.com/" + id + "/2.jpg", Position: 1},
	}
	return p
}

func seedLike(db *gorm.DB, from, to string, superlike bool) error {
	like := Like{FromUser: from, ToUser: to, IsSuperlike: superlike}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "from_user"}, {Name: "to_user"}},
		DoNothing: true,
	}).Create(&like).Error; err != nil {
		return fmt.Errorf("failed to seed like: %w", err)
	}
	return nil
}

func seedMatch(db *gorm.DB, a, b string) error {
	userA, userB := CanonicalPair(a, b)
	match := Match{UserA: userA, UserB: userB, MatchedAt: Now()}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_a"}, {Name: "user_b"}},
		DoNothing: true,
	}).Create(&match).Error; err != nil {
		return fmt.Errorf("failed to seed match: %w", err)
	}
	return nil
}
