// Command seed fills the configured database with demo data.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"

	"gorm.io/gorm"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	postsPerUser := flag.Int("posts", 5, "Posts per user")
	commentsPerPost := flag.Int("comments", 2, "Comments per post")
	followsPerUser := flag.Int("follows", 3, "Authors each user follows")
	groupsFile := flag.String("groups", "", "YAML file with groups to create")
	dryRun := flag.Bool("dry-run", false, "Build the data without writing it")
	fast := flag.Bool("fast", false, "Use the cheapest bcrypt cost")
	flag.Parse()

	var groups []seed.GroupSpec
	if *groupsFile != "" {
		var err error
		groups, err = seed.LoadGroups(*groupsFile)
		if err != nil {
			log.Fatalf("Failed to load groups: %v", err)
		}
	}

	var db *gorm.DB
	if !*dryRun {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		db, err = database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer func() { _ = database.Close(db) }()
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:           *numUsers,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
		FollowsPerUser:  *followsPerUser,
		DryRun:          *dryRun,
		SkipBcrypt:      *fast,
	})
	if _, err := s.Run(groups); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
