package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pitchlab-hq/pitch_api/model"
)

// ChallengeRepository reads the challenge catalog and tracks per-user
// challenge progress rows, created lazily the first time they matter.
type ChallengeRepository struct {
	BaseRepository
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// GetActiveChallenges returns challenges whose window contains now, sorted
// by id for deterministic evaluation.
func (r *ChallengeRepository) GetActiveChallenges(now time.Time) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.db.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("id ASC").
		Find(&challenges).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to load active challenges")
	}
	return challenges, nil
}

func (r *ChallengeRepository) GetOrCreateProgress(userID, challengeID string) (*model.UserChallengeProgress, error) {
	var progress model.UserChallengeProgress
	err := r.db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, wrapDBError(err, "Failed to load challenge progress")
	}

	id, _ := uuid.NewV7()
	now := time.Now()
	progress = model.UserChallengeProgress{
		ID:          id.String(),
		UserID:      userID,
		ChallengeID: challengeID,
		Progress:    model.RequirementMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.db.Create(&progress).Error; err != nil {
		if isDuplicateKeyError(err) {
			// Raced with another update for the same pair; use the winner.
			var existing model.UserChallengeProgress
			if err := r.db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
				First(&existing).Error; err != nil {
				return nil, wrapDBError(err, "Failed to load challenge progress")
			}
			return &existing, nil
		}
		return nil, wrapDBError(err, "Failed to create challenge progress")
	}

	return &progress, nil
}

func (r *ChallengeRepository) SaveProgress(progress *model.UserChallengeProgress) error {
	progress.UpdatedAt = time.Now()
	if err := r.db.Save(progress).Error; err != nil {
		return wrapDBError(err, "Failed to save challenge progress")
	}
	return nil
}

// MarkCompleted flips completed exactly once. The guarded WHERE makes the
// transition race-safe: only one of two concurrent callers sees a row
// affected, so only one credits the reward.
func (r *ChallengeRepository) MarkCompleted(userID, challengeID string) (bool, error) {
	now := time.Now()
	result := r.db.Model(&model.UserChallengeProgress{}).
		Where("user_id = ? AND challenge_id = ? AND completed = ?", userID, challengeID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, wrapDBError(result.Error, "Failed to complete challenge")
	}
	return result.RowsAffected > 0, nil
}

func (r *ChallengeRepository) GetUserProgress(userID string, challengeIDs []string) (map[string]*model.UserChallengeProgress, error) {
	if len(challengeIDs) == 0 {
		return map[string]*model.UserChallengeProgress{}, nil
	}

	var rows []model.UserChallengeProgress
	err := r.db.Where("user_id = ? AND challenge_id IN ?", userID, challengeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to load challenge progress")
	}

	byChallenge := make(map[string]*model.UserChallengeProgress, len(rows))
	for i := range rows {
		byChallenge[rows[i].ChallengeID] = &rows[i]
	}
	return byChallenge, nil
}
