package seeders

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

// AchievementSeeder handles seeding the achievement catalog
type AchievementSeeder struct {
	db *gorm.DB
}

// NewAchievementSeeder creates a new achievement seeder
func NewAchievementSeeder(db *gorm.DB) *AchievementSeeder {
	return &AchievementSeeder{db: db}
}

// SeedAchievements seeds the database with the base achievement catalog
func (s *AchievementSeeder) SeedAchievements() error {
	achievements := s.getAchievements()

	for _, achievement := range achievements {
		var existing model.Achievement
		if err := s.db.Where("id = ?", achievement.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&achievement).Error; err != nil {
					log.Printf("Error creating achievement %s: %v", achievement.Name, err)
					return err
				}
				log.Printf("Created achievement: %s", achievement.Name)
			} else {
				log.Printf("Error checking achievement %s: %v", achievement.Name, err)
				return err
			}
		} else {
			log.Printf("Achievement %s already exists, skipping", achievement.Name)
		}
	}

	log.Println("Achievement seeding completed successfully")
	return nil
}

func (s *AchievementSeeder) getAchievements() []model.Achievement {
	now := time.Now()

	achievements := []model.Achievement{
		{
			ID:          "ach_first_module",
			Name:        "First Steps",
			Description: "Complete your first training module",
			Icon:        "/assets/achievements/first_steps.png",
			Rarity:      shared.RarityCommon,
			Requirements: model.RequirementMap{
				shared.CounterModulesCompleted: 1,
			},
			XPReward:  25,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_first_quiz",
			Name:        "Pop Quiz",
			Description: "Complete your first quiz",
			Icon:        "/assets/achievements/pop_quiz.png",
			Rarity:      shared.RarityCommon,
			Requirements: model.RequirementMap{
				shared.CounterQuizzesCompleted: 1,
			},
			XPReward:  25,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_first_simulation",
			Name:        "Role Play Rookie",
			Description: "Complete your first sales call simulation",
			Icon:        "/assets/achievements/role_play_rookie.png",
			Rarity:      shared.RarityCommon,
			Requirements: model.RequirementMap{
				shared.CounterSimulationsCompleted: 1,
			},
			XPReward:  25,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_module_marathon",
			Name:        "Module Marathon",
			Description: "Complete 10 training modules",
			Icon:        "/assets/achievements/module_marathon.png",
			Rarity:      shared.RarityUncommon,
			Requirements: model.RequirementMap{
				shared.CounterModulesCompleted: 10,
			},
			XPReward:  100,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_quiz_whiz",
			Name:        "Quiz Whiz",
			Description: "Complete 25 quizzes",
			Icon:        "/assets/achievements/quiz_whiz.png",
			Rarity:      shared.RarityUncommon,
			Requirements: model.RequirementMap{
				shared.CounterQuizzesCompleted: 25,
			},
			XPReward:  150,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_perfectionist",
			Name:        "Perfectionist",
			Description: "Score 100% on 5 quizzes",
			Icon:        "/assets/achievements/perfectionist.png",
			Rarity:      shared.RarityRare,
			Requirements: model.RequirementMap{
				shared.CounterPerfectScores: 5,
			},
			XPReward:  250,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_closer",
			Name:        "The Closer",
			Description: "Complete 20 sales call simulations",
			Icon:        "/assets/achievements/the_closer.png",
			Rarity:      shared.RarityRare,
			Requirements: model.RequirementMap{
				shared.CounterSimulationsCompleted: 20,
			},
			XPReward:  300,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_week_streak",
			Name:        "Consistency Is Key",
			Description: "Train 7 days in a row",
			Icon:        "/assets/achievements/consistency.png",
			Rarity:      shared.RarityRare,
			Requirements: model.RequirementMap{
				shared.CounterStreakDays: 7,
			},
			XPReward:  200,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_level_10",
			Name:        "Rising Star",
			Description: "Reach level 10",
			Icon:        "/assets/achievements/rising_star.png",
			Rarity:      shared.RarityEpic,
			Requirements: model.RequirementMap{
				shared.CounterCurrentLevel: 10,
			},
			XPReward:  500,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_complete_package",
			Name:        "The Complete Package",
			Description: "Complete 25 modules, 50 quizzes, and 25 simulations",
			Icon:        "/assets/achievements/complete_package.png",
			Rarity:      shared.RarityEpic,
			Requirements: model.RequirementMap{
				shared.CounterModulesCompleted:     25,
				shared.CounterQuizzesCompleted:     50,
				shared.CounterSimulationsCompleted: 25,
			},
			XPReward:  750,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          "ach_sales_legend",
			Name:        "Sales Legend",
			Description: "Earn 50,000 XP with a 30 day streak",
			Icon:        "/assets/achievements/sales_legend.png",
			Rarity:      shared.RarityLegendary,
			Requirements: model.RequirementMap{
				shared.CounterTotalXP:    50000,
				shared.CounterStreakDays: 30,
			},
			XPReward:  2000,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	return achievements
}
