package seeders

import (
	"log"

	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/model"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll migrates the catalog tables and runs every seeder
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting catalog seeding...")

	if err := s.db.AutoMigrate(&model.Achievement{}, &model.Challenge{}); err != nil {
		log.Printf("Catalog migration failed: %v", err)
		return err
	}

	achievementSeeder := NewAchievementSeeder(s.db)
	if err := achievementSeeder.SeedAchievements(); err != nil {
		log.Printf("Achievement seeding failed: %v", err)
		return err
	}

	challengeSeeder := NewChallengeSeeder(s.db)
	if err := challengeSeeder.SeedChallenges(); err != nil {
		log.Printf("Challenge seeding failed: %v", err)
		return err
	}

	log.Println("Catalog seeding completed successfully!")
	return nil
}

// SeedAchievementsOnly seeds only achievements
func (s *MainSeeder) SeedAchievementsOnly() error {
	achievementSeeder := NewAchievementSeeder(s.db)
	return achievementSeeder.SeedAchievements()
}

// SeedChallengesOnly seeds only challenges
func (s *MainSeeder) SeedChallengesOnly() error {
	challengeSeeder := NewChallengeSeeder(s.db)
	return challengeSeeder.SeedChallenges()
}
