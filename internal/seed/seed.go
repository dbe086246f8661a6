// Package seed fills a development database with fake users, tweets and engagement.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

var sentiments = []string{"positive", "neutral", "negative"}

// Options tune how much data is generated.
type Options struct {
	// MaxDays spreads tweet timestamps over this many past days.
	MaxDays int
	// Seed makes the output reproducible; 0 picks a random seed.
	Seed int64
}

// Seeder generates fake data through a single faker.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	now   func() time.Time
	hash  string
}

// NewSeeder binds a seeder to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	return &Seeder{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.Seed),
		now:   time.Now,
	}
}

// ClearAll removes every row, children first.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"likes", "comments", "tweets", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("Cleared seed tables")
	return nil
}

// SeedUsers creates n users sharing DefaultPassword.
func (s *Seeder) SeedUsers(n int) ([]models.User, error) {
	if s.hash == "" {
		var u models.User
		if err := u.SetPassword(DefaultPassword); err != nil {
			return nil, err
		}
		s.hash = u.PasswordHash
	}

	users := make([]models.User, 0, n)
	seen := make(map[string]bool, n)
	for len(users) < n {
		name := s.username()
		if seen[name] {
			continue
		}
		seen[name] = true
		users = append(users, models.User{
			Username:     name,
			Email:        name + "@" + s.faker.DomainName(),
			PasswordHash: s.hash,
		})
	}
	if n == 0 {
		return users, nil
	}
	if err := s.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	middleware.Logger.Info("Seeded users", slog.Int("count", len(users)))
	return users, nil
}

// SeedTweets creates n tweets by random authors with back-dated timestamps.
func (s *Seeder) SeedTweets(users []models.User, n int) ([]models.Tweet, error) {
	if len(users) == 0 || n == 0 {
		return nil, nil
	}
	tweets := make([]models.Tweet, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		tags := s.hashtags()
		tweets = append(tweets, models.Tweet{
			UserID:    author.ID,
			Content:   s.content(tags),
			Sentiment: s.faker.RandomString(sentiments),
			Hashtags:  strings.Join(tags, " "),
			CreatedAt: s.pastTime(),
		})
	}
	if err := s.db.CreateInBatches(&tweets, 100).Error; err != nil {
		return nil, fmt.Errorf("create tweets: %w", err)
	}
	middleware.Logger.Info("Seeded tweets", slog.Int("count", len(tweets)))
	return tweets, nil
}

// SeedEngagement adds likes and comments from users other than the author.
func (s *Seeder) SeedEngagement(users []models.User, tweets []models.Tweet) (likes, comments int, err error) {
	if len(users) < 2 {
		return 0, 0, nil
	}
	var likeRows []models.Like
	var commentRows []models.Comment
	for _, tw := range tweets {
		for _, u := range users {
			if u.ID == tw.UserID {
				continue
			}
			if s.faker.Number(1, 100) <= 30 {
				likeRows = append(likeRows, models.Like{UserID: u.ID, TweetID: tw.ID, CreatedAt: tw.CreatedAt})
			}
			if s.faker.Number(1, 100) <= 10 {
				at := tw.CreatedAt.Add(time.Duration(s.faker.Number(1, 600)) * time.Minute)
				if now := s.now().UTC(); at.After(now) {
					at = now
				}
				commentRows = append(commentRows, models.Comment{
					UserID:    u.ID,
					TweetID:   tw.ID,
					Content:   truncate(s.faker.Sentence(s.faker.Number(3, 12)), 280),
					CreatedAt: at,
				})
			}
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(likeRows) > 0 {
			if err := tx.CreateInBatches(&likeRows, 200).Error; err != nil {
				return fmt.Errorf("create likes: %w", err)
			}
		}
		if len(commentRows) > 0 {
			if err := tx.CreateInBatches(&commentRows, 200).Error; err != nil {
				return fmt.Errorf("create comments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	middleware.Logger.Info("Seeded engagement", slog.Int("likes", len(likeRows)), slog.Int("comments", len(commentRows)))
	return len(likeRows), len(commentRows), nil
}

func (s *Seeder) username() string {
	name := strings.ToLower(s.faker.Username())
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, name)
	name = truncate(name, 16)
	return fmt.Sprintf("%s%04d", name, s.faker.Number(0, 9999))
}

func (s *Seeder) hashtags() []string {
	n := s.faker.Number(0, 3)
	tags := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tags = append(tags, "#"+strings.ToLower(s.faker.Word()))
	}
	return tags
}

func (s *Seeder) content(tags []string) string {
	text := s.faker.Sentence(s.faker.Number(5, 25))
	if len(tags) > 0 {
		text += " " + strings.Join(tags, " ")
	}
	return truncate(text, 280)
}

func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.faker.Number(0, s.opts.MaxDays*24*60)) * time.Minute
	return s.now().UTC().Add(-back)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
