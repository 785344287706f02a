// model/progression.go
package model

import (
	"time"

	"github.com/pitchlab-hq/pitch_api/shared"
)

// UserProgress is the per-user progression record. It is only mutated through
// ProgressRepository.ApplyDelta so that level always matches the stored XP.
type UserProgress struct {
	ID                   string     `json:"id" gorm:"primaryKey"`
	UserID               string     `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalXP              int        `json:"total_xp" gorm:"default:0"`
	CurrentLevel         int        `json:"current_level" gorm:"default:1"`
	ModulesCompleted     int        `json:"modules_completed" gorm:"default:0"`
	QuizzesCompleted     int        `json:"quizzes_completed" gorm:"default:0"`
	SimulationsCompleted int        `json:"simulations_completed" gorm:"default:0"`
	PerfectScores        int        `json:"perfect_scores" gorm:"default:0"`
	StreakDays           int        `json:"streak_days" gorm:"default:0"`
	LastActivityDate     *time.Time `json:"last_activity_date"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// RequirementMap maps a counter name to a minimum threshold. All entries must
// be satisfied (AND semantics). Stored as JSON in the catalog tables.
type RequirementMap map[string]int

// ProgressDelta is one atomic set of increments applied to UserProgress.
// TouchActivity marks deltas that come from a user activity (as opposed to
// reward credits) so streak bookkeeping only runs once per activity.
type ProgressDelta struct {
	XP            int
	Counters      map[string]int
	TouchActivity bool
}

// Achievement is admin-managed catalog data, never mutated by the engine.
type Achievement struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"not null"`
	Description  string         `json:"description"`
	Icon         string         `json:"icon"`
	Rarity       string         `json:"rarity" gorm:"default:'common'"` // common, uncommon, rare, epic, legendary
	Requirements RequirementMap `json:"requirements" gorm:"serializer:json;type:text"`
	XPReward     int            `json:"xp_reward" gorm:"default:0"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// UserAchievement is append-only: at most one row per (user, achievement),
// enforced by the unique index. The insert itself is the idempotency barrier
// against concurrent double-unlocks.
type UserAchievement struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	AchievementID string    `json:"achievement_id" gorm:"not null;uniqueIndex:idx_user_achievement"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	CreatedAt     time.Time `json:"created_at"`

	Achievement Achievement `json:"achievement" gorm:"foreignKey:AchievementID"`
}

// Challenge is a time-boxed objective. Requirements carry exactly one
// counter key in the current catalog.
type Challenge struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Title         string         `json:"title" gorm:"not null"`
	Description   string         `json:"description"`
	ChallengeType string         `json:"challenge_type"` // daily, weekly, special
	Requirements  RequirementMap `json:"requirements" gorm:"serializer:json;type:text"`
	XPReward      int            `json:"xp_reward" gorm:"default:0"`
	StartDate     time.Time      `json:"start_date"`
	EndDate       time.Time      `json:"end_date"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// UserChallengeProgress mirrors the user's global counter for the challenge's
// requirement key. Values may exceed the target; display percentage is
// clamped by the service. Completed flips once and is never cleared.
type UserChallengeProgress struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	UserID      string         `json:"user_id" gorm:"not null;uniqueIndex:idx_user_challenge"`
	ChallengeID string         `json:"challenge_id" gorm:"not null;uniqueIndex:idx_user_challenge"`
	Progress    RequirementMap `json:"progress" gorm:"serializer:json;type:text"`
	Completed   bool           `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Challenge Challenge `json:"challenge" gorm:"foreignKey:ChallengeID"`
}

// CounterValue resolves a requirement key against a progress snapshot.
// Unknown keys read as 0, which can never satisfy a threshold.
func CounterValue(p *UserProgress, counter string) int {
	if p == nil {
		return 0
	}
	switch counter {
	case shared.CounterModulesCompleted:
		return p.ModulesCompleted
	case shared.CounterQuizzesCompleted:
		return p.QuizzesCompleted
	case shared.CounterSimulationsCompleted:
		return p.SimulationsCompleted
	case shared.CounterPerfectScores:
		return p.PerfectScores
	case shared.CounterStreakDays:
		return p.StreakDays
	case shared.CounterTotalXP:
		return p.TotalXP
	case shared.CounterCurrentLevel:
		return p.CurrentLevel
	}
	return 0
}

// MeetsRequirements reports whether every (counter, threshold) pair is
// satisfied by the snapshot.
func MeetsRequirements(p *UserProgress, req RequirementMap) bool {
	for counter, threshold := range req {
		if CounterValue(p, counter) < threshold {
			return false
		}
	}
	return true
}
