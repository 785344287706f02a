package seeders

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

// ChallengeSeeder handles seeding the challenge catalog
type ChallengeSeeder struct {
	db *gorm.DB
}

// NewChallengeSeeder creates a new challenge seeder
func NewChallengeSeeder(db *gorm.DB) *ChallengeSeeder {
	return &ChallengeSeeder{db: db}
}

// SeedChallenges seeds the database with a starter set of challenges. Windows
// are anchored to the seeding time; recurring windows are normally rolled by
// an ops job, this just gives a fresh environment something active.
func (s *ChallengeSeeder) SeedChallenges() error {
	challenges := s.getChallenges()

	for _, challenge := range challenges {
		var existing model.Challenge
		if err := s.db.Where("id = ?", challenge.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&challenge).Error; err != nil {
					log.Printf("Error creating challenge %s: %v", challenge.Title, err)
					return err
				}
				log.Printf("Created challenge: %s", challenge.Title)
			} else {
				log.Printf("Error checking challenge %s: %v", challenge.Title, err)
				return err
			}
		} else {
			log.Printf("Challenge %s already exists, skipping", challenge.Title)
		}
	}

	log.Println("Challenge seeding completed successfully")
	return nil
}

func (s *ChallengeSeeder) getChallenges() []model.Challenge {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	challenges := []model.Challenge{
		{
			ID:            "chal_daily_module",
			Title:         "Daily Grind",
			Description:   "Complete a training module today",
			ChallengeType: shared.ChallengeTypeDaily,
			Requirements: model.RequirementMap{
				shared.CounterModulesCompleted: 1,
			},
			XPReward:  20,
			StartDate: startOfDay,
			EndDate:   startOfDay.AddDate(0, 0, 1),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:            "chal_daily_quiz",
			Title:         "Sharpen Up",
			Description:   "Complete a quiz today",
			ChallengeType: shared.ChallengeTypeDaily,
			Requirements: model.RequirementMap{
				shared.CounterQuizzesCompleted: 1,
			},
			XPReward:  15,
			StartDate: startOfDay,
			EndDate:   startOfDay.AddDate(0, 0, 1),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:            "chal_weekly_simulations",
			Title:         "Call Week",
			Description:   "Complete 5 sales call simulations this week",
			ChallengeType: shared.ChallengeTypeWeekly,
			Requirements: model.RequirementMap{
				shared.CounterSimulationsCompleted: 5,
			},
			XPReward:  100,
			StartDate: startOfDay,
			EndDate:   startOfDay.AddDate(0, 0, 7),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:            "chal_weekly_perfect",
			Title:         "Flawless Finish",
			Description:   "Score 100% on 3 quizzes this week",
			ChallengeType: shared.ChallengeTypeWeekly,
			Requirements: model.RequirementMap{
				shared.CounterPerfectScores: 3,
			},
			XPReward:  150,
			StartDate: startOfDay,
			EndDate:   startOfDay.AddDate(0, 0, 7),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:            "chal_launch_special",
			Title:         "Launch Sprint",
			Description:   "Reach a 5 day training streak during launch month",
			ChallengeType: shared.ChallengeTypeSpecial,
			Requirements: model.RequirementMap{
				shared.CounterStreakDays: 5,
			},
			XPReward:  300,
			StartDate: startOfDay,
			EndDate:   startOfDay.AddDate(0, 1, 0),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	return challenges
}
