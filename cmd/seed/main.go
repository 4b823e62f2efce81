// Command main runs the database seeder for socialconnect.
package main

import (
	"context"
	"flag"
	"log"

	"socialconnect/internal/blob"
	"socialconnect/internal/config"
	"socialconnect/internal/database"
	"socialconnect/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	postsPerUser := flag.Int("posts", 4, "Posts per user")
	storiesPerUser := flag.Int("stories", 2, "Stories per user")
	followsPerUser := flag.Int("follows", 8, "Accounts each user follows")
	maxDays := flag.Int("days", 30, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts/user, clean=%v\n", *numUsers, *postsPerUser, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	blobs, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadMaxBytes())
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}

	stats, err := seed.Seed(context.Background(), db, blobs, seed.Options{
		NumUsers:       *numUsers,
		PostsPerUser:   *postsPerUser,
		StoriesPerUser: *storiesPerUser,
		FollowsPerUser: *followsPerUser,
		MaxDays:        *maxDays,
		ShouldClean:    *shouldClean,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d users, %d follows, %d posts, %d stories.", stats.Users, stats.Follows, stats.Posts, stats.Stories)
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
