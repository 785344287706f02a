package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/model"
)

// AchievementRepository reads the admin-managed catalog and owns the
// append-only unlock table.
type AchievementRepository struct {
	BaseRepository
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetCatalog returns active achievements sorted by id so evaluation order is
// deterministic for a given snapshot.
func (r *AchievementRepository) GetCatalog() ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&achievements).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to load achievement catalog")
	}
	return achievements, nil
}

func (r *AchievementRepository) GetUnlockedIDs(userID string) (map[string]bool, error) {
	var unlocks []model.UserAchievement
	err := r.db.Where("user_id = ?", userID).Find(&unlocks).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to load unlocked achievements")
	}

	ids := make(map[string]bool, len(unlocks))
	for _, u := range unlocks {
		ids[u.AchievementID] = true
	}
	return ids, nil
}

func (r *AchievementRepository) GetUserAchievements(userID string) ([]model.UserAchievement, error) {
	var unlocks []model.UserAchievement
	err := r.db.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to load user achievements")
	}
	return unlocks, nil
}

// InsertUnlock records an unlock. The unique index on (user_id,
// achievement_id) is the idempotency barrier: a racing duplicate insert
// reports created=false so the reward is never credited twice.
func (r *AchievementRepository) InsertUnlock(userID, achievementID string) (bool, error) {
	id, _ := uuid.NewV7()
	now := time.Now()
	unlock := &model.UserAchievement{
		ID:            id.String(),
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    now,
		CreatedAt:     now,
	}

	if err := r.db.Create(unlock).Error; err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, wrapDBError(err, "Failed to record achievement unlock")
	}

	return true, nil
}
