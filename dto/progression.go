// dto/progression.go
package dto

import "time"

// Activity DTOs
type ActivityRequest struct {
	ActivityType string `json:"activity_type" validate:"required,oneof=module quiz simulation"`
	Score        *int   `json:"score,omitempty" validate:"omitempty,gte=0"`
	IsPerfect    bool   `json:"is_perfect,omitempty"`
}

type ActivityResponse struct {
	Progress             ProgressResponse      `json:"progress"`
	LeveledUp            bool                  `json:"leveled_up"`
	PreviousLevel        int                   `json:"previous_level"`
	UnlockedAchievements []AchievementResponse `json:"unlocked_achievements"`
	CompletedChallenges  []ChallengeResponse   `json:"completed_challenges"`
}

// Progress DTOs
type ProgressResponse struct {
	UserID               string     `json:"user_id"`
	TotalXP              int        `json:"total_xp"`
	CurrentLevel         int        `json:"current_level"`
	XPToNextLevel        int        `json:"xp_to_next_level"`
	LevelProgress        float64    `json:"level_progress"`
	ModulesCompleted     int        `json:"modules_completed"`
	QuizzesCompleted     int        `json:"quizzes_completed"`
	SimulationsCompleted int        `json:"simulations_completed"`
	PerfectScores        int        `json:"perfect_scores"`
	StreakDays           int        `json:"streak_days"`
	LastActivityDate     *time.Time `json:"last_activity_date,omitempty"`
}

// Achievement DTOs
type AchievementResponse struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Icon         string         `json:"icon"`
	Rarity       string         `json:"rarity"`
	Requirements map[string]int `json:"requirements"`
	XPReward     int            `json:"xp_reward"`
	Unlocked     bool           `json:"unlocked"`
	UnlockedAt   *time.Time     `json:"unlocked_at,omitempty"`
}

type AchievementListResponse struct {
	Achievements []AchievementResponse `json:"achievements"`
	Total        int                   `json:"total"`
	Unlocked     int                   `json:"unlocked"`
}

type RecheckResponse struct {
	Progress             ProgressResponse      `json:"progress"`
	UnlockedAchievements []AchievementResponse `json:"unlocked_achievements"`
}

// Challenge DTOs
type ChallengeResponse struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ChallengeType   string         `json:"challenge_type"`
	Requirements    map[string]int `json:"requirements"`
	Progress        map[string]int `json:"progress"`
	ProgressPercent float64        `json:"progress_percent"`
	XPReward        int            `json:"xp_reward"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	Completed       bool           `json:"completed"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

type ChallengeListResponse struct {
	Challenges []ChallengeResponse `json:"challenges"`
	Total      int                 `json:"total"`
}
