package shared

const (
	UserID = "user_id"

	RarityCommon    = "common"
	RarityUncommon  = "uncommon"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"

	ActivityTypeModule     = "module"
	ActivityTypeQuiz       = "quiz"
	ActivityTypeSimulation = "simulation"

	ChallengeTypeDaily   = "daily"
	ChallengeTypeWeekly  = "weekly"
	ChallengeTypeSpecial = "special"

	// Granted when a progress record is first created for an account.
	StartingXPBonus = 500

	DefaultModuleXP     = 50
	DefaultQuizXP       = 30
	DefaultSimulationXP = 40
)

// Counter names form a closed namespace. Achievement and challenge
// requirement maps may only reference these keys; anything else is rejected
// when the catalog is loaded.
const (
	CounterModulesCompleted     = "modules_completed"
	CounterQuizzesCompleted     = "quizzes_completed"
	CounterSimulationsCompleted = "simulations_completed"
	CounterPerfectScores        = "perfect_scores"
	CounterStreakDays           = "streak_days"
	CounterTotalXP              = "total_xp"
	CounterCurrentLevel         = "current_level"
)

var KnownCounters = map[string]bool{
	CounterModulesCompleted:     true,
	CounterQuizzesCompleted:     true,
	CounterSimulationsCompleted: true,
	CounterPerfectScores:        true,
	CounterStreakDays:           true,
	CounterTotalXP:              true,
	CounterCurrentLevel:         true,
}

func IsKnownActivityType(activityType string) bool {
	switch activityType {
	case ActivityTypeModule, ActivityTypeQuiz, ActivityTypeSimulation:
		return true
	}
	return false
}
