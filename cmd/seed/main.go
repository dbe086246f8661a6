// Command seed populates the database with fake users, tweets and engagement.
package main

import (
	"flag"
	"log"

	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numTweets := flag.Int("tweets", 100, "Number of tweets to create")
	maxDays := flag.Int("days", 30, "Spread tweets over this many past days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Printf("Target: %d users, %d tweets, clean=%v", *numUsers, *numTweets, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{MaxDays: *maxDays})
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, err := s.SeedUsers(*numUsers)
	if err != nil {
		log.Fatalf("User seeding failed: %v", err)
	}
	tweets, err := s.SeedTweets(users, *numTweets)
	if err != nil {
		log.Fatalf("Tweet seeding failed: %v", err)
	}
	if _, _, err := s.SeedEngagement(users, tweets); err != nil {
		log.Fatalf("Engagement seeding failed: %v", err)
	}

	log.Printf("Done. All seeded users have the password: %s", seed.DefaultPassword)
}
