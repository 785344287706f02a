// services/progression.go
package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/services/repositories"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type progressStore interface {
	GetProgress(userID string) (*model.UserProgress, error)
	InitializeProgress(userID string, startingXP int) (*model.UserProgress, error)
	ApplyDelta(userID string, delta model.ProgressDelta) (*model.UserProgress, error)
}

type achievementEvaluator interface {
	Evaluate(userID string, snapshot *model.UserProgress) ([]model.Achievement, error)
}

type challengeUpdater interface {
	Update(userID, activityType string, snapshot *model.UserProgress) ([]model.Challenge, error)
}

type scoreMirror interface {
	UpdateScore(userID string, totalXP int)
}

// ProgressionService coordinates one atomic "apply activity" operation:
// progress delta, achievement evaluation, challenge updates, reward credits.
type ProgressionService struct {
	context.DefaultService

	store        progressStore
	achievements achievementEvaluator
	challenges   challengeUpdater
	board        scoreMirror

	conflictRetries int
}

const PROGRESSION_SVC = "progression_svc"

func (svc ProgressionService) Id() string {
	return PROGRESSION_SVC
}

func (svc *ProgressionService) Start() error {
	if DatabaseDriver() == DriverSqlite {
		svc.store = repositories.NewProgressRepository(svc.Service(SQLITE_SVC).(*SqliteService).Db())
	} else {
		svc.store = repositories.NewProgressRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	}

	svc.achievements = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.challenges = svc.Service(CHALLENGE_SVC).(*ChallengeService)
	svc.board = svc.Service(LEADERBOARD_SVC).(*LeaderboardService)
	svc.conflictRetries = 3

	return nil
}

// activityDelta builds the fixed activity → XP/counter mapping. Quiz and
// simulation take the submitted score as XP when present; modules are a
// flat award.
func activityDelta(req dto.ActivityRequest) (model.ProgressDelta, error) {
	delta := model.ProgressDelta{
		Counters:      map[string]int{},
		TouchActivity: true,
	}

	switch req.ActivityType {
	case shared.ActivityTypeModule:
		delta.XP = shared.DefaultModuleXP
		delta.Counters[shared.CounterModulesCompleted] = 1
	case shared.ActivityTypeQuiz:
		delta.XP = shared.DefaultQuizXP
		if req.Score != nil {
			delta.XP = *req.Score
		}
		delta.Counters[shared.CounterQuizzesCompleted] = 1
		if req.IsPerfect {
			delta.Counters[shared.CounterPerfectScores] = 1
		}
	case shared.ActivityTypeSimulation:
		delta.XP = shared.DefaultSimulationXP
		if req.Score != nil {
			delta.XP = *req.Score
		}
		delta.Counters[shared.CounterSimulationsCompleted] = 1
	default:
		return delta, shared.NewBadRequestError(
			fmt.Errorf("unknown activity type %q", req.ActivityType), "Unknown activity type")
	}

	return delta, nil
}

// ApplyActivity is the engine's single write entry point.
//
// The base delta (step 2) is the only part that must not be lost: if it
// fails, the whole call fails with nothing committed. Achievement and
// challenge crediting run after it; their failures leave the base commit in
// place, get logged, and are recoverable through RecheckAchievements.
//
// Achievement evaluation runs exactly once, against the post-activity
// snapshot. XP credited by an unlock is not re-evaluated in the same call,
// so an achievement gated only on total_xp that is crossed by a reward
// unlocks on the next activity instead.
func (svc *ProgressionService) ApplyActivity(userID string, req dto.ActivityRequest) (*dto.ActivityResponse, error) {
	if err := dto.GetValidator().Struct(req); err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid activity request")
	}

	delta, err := activityDelta(req)
	if err != nil {
		RecordActivityApplied(req.ActivityType, "rejected")
		return nil, err
	}

	snapshot, err := svc.applyDeltaWithRetry(userID, delta)
	if err != nil {
		RecordActivityApplied(req.ActivityType, "failed")
		return nil, err
	}

	// Counters never affect the level, so the pre-activity level falls out
	// of the post-activity XP.
	previousLevel := shared.Level(snapshot.TotalXP - delta.XP)
	if snapshot.CurrentLevel > previousLevel {
		log.WithFields(log.Fields{
			"user_id": userID,
			"level":   snapshot.CurrentLevel,
		}).Info("User leveled up")
		RecordLevelUp()
	}

	RecordActivityApplied(req.ActivityType, "applied")
	RecordXPAwarded("activity", delta.XP)

	snapshot, unlocked := svc.runAchievementPass(userID, snapshot)

	completed, err := svc.challenges.Update(userID, req.ActivityType, snapshot)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).
			Error("Challenge update failed after base commit, eligible for reconciliation")
	}
	for _, challenge := range completed {
		credited, err := svc.applyDeltaWithRetry(userID, model.ProgressDelta{XP: challenge.XPReward})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":      userID,
				"challenge_id": challenge.ID,
			}).Error("Failed to credit challenge reward")
			continue
		}
		snapshot = credited
		RecordXPAwarded("challenge", challenge.XPReward)
	}

	svc.board.UpdateScore(userID, snapshot.TotalXP)

	response := &dto.ActivityResponse{
		Progress:             progressToResponse(snapshot),
		LeveledUp:            snapshot.CurrentLevel > previousLevel,
		PreviousLevel:        previousLevel,
		UnlockedAchievements: make([]dto.AchievementResponse, 0, len(unlocked)),
		CompletedChallenges:  make([]dto.ChallengeResponse, 0, len(completed)),
	}
	for _, achievement := range unlocked {
		response.UnlockedAchievements = append(response.UnlockedAchievements, achievementToResponse(achievement))
	}
	for _, challenge := range completed {
		response.CompletedChallenges = append(response.CompletedChallenges, challengeToResponse(challenge))
	}

	return response, nil
}

// runAchievementPass evaluates the catalog once against the snapshot and
// credits each fresh unlock's reward. Failures are logged, never fatal: the
// user keeps the base progress and RecheckAchievements reconciles later.
func (svc *ProgressionService) runAchievementPass(userID string, snapshot *model.UserProgress) (*model.UserProgress, []model.Achievement) {
	unlocked, err := svc.achievements.Evaluate(userID, snapshot)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).
			Error("Achievement evaluation failed after base commit, eligible for reconciliation")
	}

	for _, achievement := range unlocked {
		if achievement.XPReward <= 0 {
			continue
		}
		credited, err := svc.applyDeltaWithRetry(userID, model.ProgressDelta{XP: achievement.XPReward})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":        userID,
				"achievement_id": achievement.ID,
			}).Error("Failed to credit achievement reward")
			continue
		}
		snapshot = credited
		RecordXPAwarded("achievement", achievement.XPReward)
	}

	return snapshot, unlocked
}

// applyDeltaWithRetry retries store-level contention a bounded number of
// times and recovers a missing record with an implicit initialize, so first
// activity and onboarding bonus can arrive in either order.
func (svc *ProgressionService) applyDeltaWithRetry(userID string, delta model.ProgressDelta) (*model.UserProgress, error) {
	retries := svc.conflictRetries
	if retries <= 0 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		snapshot, err := svc.store.ApplyDelta(userID, delta)
		if err == nil {
			return snapshot, nil
		}

		if shared.IsNotFound(err) {
			if _, initErr := svc.store.InitializeProgress(userID, shared.StartingXPBonus); initErr != nil {
				return nil, initErr
			}
			continue
		}
		if !shared.IsConflict(err) {
			return nil, err
		}

		lastErr = err
		time.Sleep(time.Duration(attempt+1) * 25 * time.Millisecond)
	}

	return nil, lastErr
}

// ==================== READ PATHS ====================

func (svc *ProgressionService) GetProgress(userID string) (*dto.ProgressResponse, error) {
	snapshot, err := svc.store.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	if err := verifyConsistency(snapshot); err != nil {
		return nil, err
	}

	response := progressToResponse(snapshot)
	return &response, nil
}

func (svc *ProgressionService) InitializeProgress(userID string) (*dto.ProgressResponse, error) {
	snapshot, err := svc.store.InitializeProgress(userID, shared.StartingXPBonus)
	if err != nil {
		return nil, err
	}

	response := progressToResponse(snapshot)
	return &response, nil
}

// RecheckAchievements is the idempotent reconciliation path for unlocks that
// failed to persist or credit during a previous ApplyActivity call.
func (svc *ProgressionService) RecheckAchievements(userID string) (*dto.RecheckResponse, error) {
	snapshot, err := svc.store.GetProgress(userID)
	if err != nil {
		return nil, err
	}
	if err := verifyConsistency(snapshot); err != nil {
		return nil, err
	}

	snapshot, unlocked := svc.runAchievementPass(userID, snapshot)
	svc.board.UpdateScore(userID, snapshot.TotalXP)

	response := &dto.RecheckResponse{
		Progress:             progressToResponse(snapshot),
		UnlockedAchievements: make([]dto.AchievementResponse, 0, len(unlocked)),
	}
	for _, achievement := range unlocked {
		response.UnlockedAchievements = append(response.UnlockedAchievements, achievementToResponse(achievement))
	}
	return response, nil
}

// verifyConsistency enforces the level/XP invariant on reads. A mismatch
// means a write bypassed ApplyDelta; it is surfaced, never auto-corrected.
func verifyConsistency(snapshot *model.UserProgress) error {
	expected := shared.Level(snapshot.TotalXP)
	if snapshot.CurrentLevel == expected {
		return nil
	}

	err := fmt.Errorf("stored level %d does not match level %d derived from %d xp",
		snapshot.CurrentLevel, expected, snapshot.TotalXP)
	log.WithFields(log.Fields{
		"user_id":        snapshot.UserID,
		"stored_level":   snapshot.CurrentLevel,
		"expected_level": expected,
		"total_xp":       snapshot.TotalXP,
	}).Error("Progress consistency violation")
	RecordConsistencyViolation()

	return shared.NewConsistencyError(err, "Progress record is inconsistent")
}

func progressToResponse(snapshot *model.UserProgress) dto.ProgressResponse {
	return dto.ProgressResponse{
		UserID:               snapshot.UserID,
		TotalXP:              snapshot.TotalXP,
		CurrentLevel:         snapshot.CurrentLevel,
		XPToNextLevel:        shared.XPThreshold(snapshot.CurrentLevel) - snapshot.TotalXP,
		LevelProgress:        shared.LevelProgress(snapshot.TotalXP),
		ModulesCompleted:     snapshot.ModulesCompleted,
		QuizzesCompleted:     snapshot.QuizzesCompleted,
		SimulationsCompleted: snapshot.SimulationsCompleted,
		PerfectScores:        snapshot.PerfectScores,
		StreakDays:           snapshot.StreakDays,
		LastActivityDate:     snapshot.LastActivityDate,
	}
}
