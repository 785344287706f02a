// services/achievement.go
package services

import (
	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/services/repositories"
	"github.com/pitchlab-hq/pitch_api/shared"
)

// achievementStore is the persistence surface the rule engine needs. The
// GORM repository implements it; tests use in-memory fakes.
type achievementStore interface {
	GetCatalog() ([]model.Achievement, error)
	GetUnlockedIDs(userID string) (map[string]bool, error)
	GetUserAchievements(userID string) ([]model.UserAchievement, error)
	InsertUnlock(userID, achievementID string) (bool, error)
}

type AchievementService struct {
	context.DefaultService

	store achievementStore
}

const ACHIEVEMENT_SVC = "achievement_svc"

func (svc AchievementService) Id() string {
	return ACHIEVEMENT_SVC
}

func (svc *AchievementService) Start() error {
	if DatabaseDriver() == DriverSqlite {
		svc.store = repositories.NewAchievementRepository(svc.Service(SQLITE_SVC).(*SqliteService).Db())
	} else {
		svc.store = repositories.NewAchievementRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	}
	return nil
}

// Evaluate unlocks every not-yet-unlocked achievement whose requirements the
// snapshot satisfies. The catalog arrives sorted by id, so the pass is
// deterministic for a given snapshot. The unique-insert on the unlock table
// means two racing evaluations cannot both credit the same achievement: the
// loser sees created=false and skips it.
func (svc *AchievementService) Evaluate(userID string, snapshot *model.UserProgress) ([]model.Achievement, error) {
	catalog, err := svc.store.GetCatalog()
	if err != nil {
		return nil, err
	}

	unlocked, err := svc.store.GetUnlockedIDs(userID)
	if err != nil {
		return nil, err
	}

	var newlyUnlocked []model.Achievement
	for _, achievement := range catalog {
		if unlocked[achievement.ID] {
			continue
		}
		if !svc.validRequirements(achievement.ID, achievement.Requirements) {
			continue
		}
		if !model.MeetsRequirements(snapshot, achievement.Requirements) {
			continue
		}

		created, err := svc.store.InsertUnlock(userID, achievement.ID)
		if err != nil {
			// Persistence failed mid-pass; report what already landed so
			// the caller can credit those and reconcile the rest later.
			return newlyUnlocked, err
		}
		if !created {
			// Another evaluation got there first.
			continue
		}

		log.WithFields(log.Fields{
			"user_id":        userID,
			"achievement_id": achievement.ID,
			"rarity":         achievement.Rarity,
		}).Info("Achievement unlocked")
		RecordAchievementUnlocked(achievement.Rarity)

		newlyUnlocked = append(newlyUnlocked, achievement)
	}

	return newlyUnlocked, nil
}

// validRequirements rejects catalog entries referencing counters outside the
// closed namespace. Bad admin data should never silently unlock (missing
// counters read as 0) nor block the rest of the pass.
func (svc *AchievementService) validRequirements(achievementID string, req model.RequirementMap) bool {
	if len(req) == 0 {
		log.WithField("achievement_id", achievementID).Warn("Achievement has no requirements, skipping")
		return false
	}
	for counter := range req {
		if !shared.KnownCounters[counter] {
			log.WithFields(log.Fields{
				"achievement_id": achievementID,
				"counter":        counter,
			}).Warn("Achievement references unknown counter, skipping")
			return false
		}
	}
	return true
}

// GetUserAchievementList returns the full catalog annotated with the user's
// unlock state, newest unlocks first within the unlocked set.
func (svc *AchievementService) GetUserAchievementList(userID string) (*dto.AchievementListResponse, error) {
	catalog, err := svc.store.GetCatalog()
	if err != nil {
		return nil, err
	}

	unlocks, err := svc.store.GetUserAchievements(userID)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[string]*model.UserAchievement, len(unlocks))
	for i := range unlocks {
		unlockedAt[unlocks[i].AchievementID] = &unlocks[i]
	}

	achievements := make([]dto.AchievementResponse, len(catalog))
	unlockedCount := 0
	for i, achievement := range catalog {
		resp := dto.AchievementResponse{
			ID:           achievement.ID,
			Name:         achievement.Name,
			Description:  achievement.Description,
			Icon:         achievement.Icon,
			Rarity:       achievement.Rarity,
			Requirements: achievement.Requirements,
			XPReward:     achievement.XPReward,
		}
		if unlock, ok := unlockedAt[achievement.ID]; ok {
			resp.Unlocked = true
			t := unlock.UnlockedAt
			resp.UnlockedAt = &t
			unlockedCount++
		}
		achievements[i] = resp
	}

	return &dto.AchievementListResponse{
		Achievements: achievements,
		Total:        len(achievements),
		Unlocked:     unlockedCount,
	}, nil
}

func achievementToResponse(achievement model.Achievement) dto.AchievementResponse {
	return dto.AchievementResponse{
		ID:           achievement.ID,
		Name:         achievement.Name,
		Description:  achievement.Description,
		Icon:         achievement.Icon,
		Rarity:       achievement.Rarity,
		Requirements: achievement.Requirements,
		XPReward:     achievement.XPReward,
		Unlocked:     true,
	}
}
