// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"linkparty/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumParties  int
	ShouldClean bool
	PartyTTL    time.Duration
}

// Seeder creates demo data for development environments.
type Seeder struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumParties <= 0 {
		opts.NumParties = 5
	}
	if opts.PartyTTL <= 0 {
		opts.PartyTTL = 24 * time.Hour
	}
	return &Seeder{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run seeds users, a friendship mesh and a handful of parties.
func (s *Seeder) Run() error {
	if s.opts.ShouldClean {
		if err := s.clean(); err != nil {
			return err
		}
	}

	users, err := s.SeedUsers(s.opts.NumUsers)
	if err != nil {
		return err
	}
	if err := s.SeedFriendMesh(users); err != nil {
		return err
	}
	if err := s.SeedParties(users, s.opts.NumParties); err != nil {
		return err
	}

	log.Printf("Seeded %d users and %d parties", len(users), s.opts.NumParties)
	return nil
}

func (s *Seeder) clean() error {
	tables := []any{
		&models.Notification{},
		&models.PushSubscription{},
		&models.InviteToken{},
		&models.PartyQueueItem{},
		&models.PartyMember{},
		&models.Party{},
		&models.UserBlock{},
		&models.Friendship{},
		&models.User{},
	}
	for _, table := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return fmt.Errorf("clean table: %w", err)
		}
	}
	return nil
}

// SeedUsers creates n demo users with fake identities.
func (s *Seeder) SeedUsers(n int) ([]models.User, error) {
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		name := gofakeit.Username()
		user := models.User{
			Username: fmt.Sprintf("%s%d", name, i),
			Email:    strings.ToLower(fmt.Sprintf("%s%d@%s", name, i, gofakeit.DomainName())),
			Avatar:   fmt.Sprintf("https://picsum.photos/seed/%s/200/200", gofakeit.UUID()),
		}
		users = append(users, user)
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&users, 50).Error; err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return users, nil
}

// SeedFriendMesh creates a mix of mutual friendships and pending requests
// between the users, always writing accepted pairs as matched mirror rows.
func (s *Seeder) SeedFriendMesh(users []models.User) error {
	for i := range users {
		for j := i + 1; j < len(users); j++ {
			roll := s.rng.Float64()
			switch {
			case roll < 0.2:
				pair := []models.Friendship{
					{UserID: users[i].ID, FriendID: users[j].ID, Status: models.FriendshipStatusAccepted},
					{UserID: users[j].ID, FriendID: users[i].ID, Status: models.FriendshipStatusAccepted},
				}
				if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&pair).Error; err != nil {
					return fmt.Errorf("seed friendship pair: %w", err)
				}
			case roll < 0.3:
				req := models.Friendship{
					UserID:   users[i].ID,
					FriendID: users[j].ID,
					Status:   models.FriendshipStatusPending,
				}
				if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&req).Error; err != nil {
					return fmt.Errorf("seed friend request: %w", err)
				}
			}
		}
	}
	return nil
}

// SeedParties creates n active parties, each hosted by a random user with a
// few members and queue items.
func (s *Seeder) SeedParties(users []models.User, n int) error {
	for i := 0; i < n; i++ {
		host := users[s.rng.Intn(len(users))]
		hostSession := gofakeit.UUID()

		party := models.Party{
			Code:          demoCode(s.rng),
			Name:          fmt.Sprintf("%s %s", gofakeit.HackerAdjective(), gofakeit.HackerNoun()),
			HostSessionID: hostSession,
			ExpiresAt:     time.Now().Add(s.opts.PartyTTL),
		}
		if i%3 == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
			if err != nil {
				return fmt.Errorf("seed party password: %w", err)
			}
			party.PasswordHash = string(hash)
		}
		if err := s.db.Create(&party).Error; err != nil {
			return fmt.Errorf("seed party: %w", err)
		}

		hostID := host.ID
		members := []models.PartyMember{{
			PartyID:     party.ID,
			SessionID:   hostSession,
			DisplayName: host.Username,
			IsHost:      true,
			UserID:      &hostID,
		}}
		for m := 0; m < s.rng.Intn(5)+1; m++ {
			members = append(members, models.PartyMember{
				PartyID:     party.ID,
				SessionID:   gofakeit.UUID(),
				DisplayName: gofakeit.Username(),
			})
		}
		if err := s.db.Create(&members).Error; err != nil {
			return fmt.Errorf("seed party members: %w", err)
		}

		for q := 0; q < s.rng.Intn(4); q++ {
			item := models.PartyQueueItem{
				PartyID:  party.ID,
				URL:      gofakeit.URL(),
				Title:    gofakeit.Sentence(4),
				Position: q,
				AddedBy:  hostSession,
			}
			if err := s.db.Create(&item).Error; err != nil {
				return fmt.Errorf("seed queue item: %w", err)
			}
		}
	}
	return nil
}

// demoCode generates a party code using math/rand; demo data does not need
// crypto randomness.
func demoCode(rng *rand.Rand) string {
	code := make([]byte, models.PartyCodeLength)
	for i := range code {
		code[i] = models.PartyCodeAlphabet[rng.Intn(len(models.PartyCodeAlphabet))]
	}
	return string(code)
}
