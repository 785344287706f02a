package repositories

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

// ProgressRepository owns the UserProgress table. All writes go through
// ApplyDelta so concurrent updates to the same user serialize on a row lock
// and the stored level always matches the stored XP.
type ProgressRepository struct {
	BaseRepository
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *ProgressRepository) GetProgress(userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	if err := r.db.Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, wrapDBError(err, "Progress record not found")
	}
	return &progress, nil
}

// InitializeProgress creates the progress record with the onboarding XP
// bonus. It is a no-op if a record already exists; a racing duplicate insert
// resolves to the surviving row.
func (r *ProgressRepository) InitializeProgress(userID string, startingXP int) (*model.UserProgress, error) {
	existing, err := r.GetProgress(userID)
	if err == nil {
		return existing, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	id, _ := uuid.NewV7()
	now := time.Now()
	progress := &model.UserProgress{
		ID:           id.String(),
		UserID:       userID,
		TotalXP:      startingXP,
		CurrentLevel: shared.Level(startingXP),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.db.Create(progress).Error; err != nil {
		if isDuplicateKeyError(err) {
			// Lost the race to another initialize; the existing row wins.
			return r.GetProgress(userID)
		}
		return nil, wrapDBError(err, "Failed to initialize progress")
	}

	log.WithFields(log.Fields{
		"user_id":     userID,
		"starting_xp": startingXP,
	}).Info("Initialized user progress")

	return progress, nil
}

// ApplyDelta applies counter and XP increments as one transaction. The row
// is read under SELECT ... FOR UPDATE so two racing activities both land;
// read-then-write without the lock would lose one of the increments.
func (r *ProgressRepository) ApplyDelta(userID string, delta model.ProgressDelta) (*model.UserProgress, error) {
	var updated model.UserProgress

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var progress model.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&progress).Error; err != nil {
			return err
		}

		for counter, amount := range delta.Counters {
			applyCounter(&progress, counter, amount)
		}

		progress.TotalXP += delta.XP
		if progress.TotalXP < 0 {
			progress.TotalXP = 0
		}
		progress.CurrentLevel = shared.Level(progress.TotalXP)

		if delta.TouchActivity {
			updateStreak(&progress)
		}
		progress.UpdatedAt = time.Now()

		if err := tx.Save(&progress).Error; err != nil {
			return err
		}

		updated = progress
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err, "Failed to apply progress delta")
	}

	return &updated, nil
}

func applyCounter(p *model.UserProgress, counter string, amount int) {
	switch counter {
	case shared.CounterModulesCompleted:
		p.ModulesCompleted += amount
	case shared.CounterQuizzesCompleted:
		p.QuizzesCompleted += amount
	case shared.CounterSimulationsCompleted:
		p.SimulationsCompleted += amount
	case shared.CounterPerfectScores:
		p.PerfectScores += amount
	default:
		log.WithField("counter", counter).Warn("Ignoring unknown counter in delta")
	}
}

// updateStreak keeps the consecutive-day counter: same day leaves it alone,
// the next day increments, any gap resets to 1.
func updateStreak(p *model.UserProgress) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if p.LastActivityDate == nil {
		p.StreakDays = 1
	} else {
		last := p.LastActivityDate
		lastDay := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, last.Location())

		switch int(today.Sub(lastDay).Hours() / 24) {
		case 0:
			// Same day, no change
		case 1:
			p.StreakDays++
		default:
			p.StreakDays = 1
		}
	}

	p.LastActivityDate = &now
}

// ==================== LEADERBOARD QUERIES ====================

func (r *ProgressRepository) GetTopByXP(limit int) ([]model.UserProgress, error) {
	var rows []model.UserProgress
	err := r.db.Order("total_xp DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "Failed to query leaderboard")
	}
	return rows, nil
}

// CountWithMoreXP backs rank lookups: rank = count(strictly greater) + 1,
// which stays consistent regardless of tie-break order.
func (r *ProgressRepository) CountWithMoreXP(totalXP int) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserProgress{}).
		Where("total_xp > ?", totalXP).
		Count(&count).Error
	if err != nil {
		return 0, wrapDBError(err, "Failed to compute rank")
	}
	return count, nil
}

// GetProgressByUserIDs hydrates leaderboard rows when the ordering came
// from the Redis mirror.
func (r *ProgressRepository) GetProgressByUserIDs(userIDs []string) (map[string]*model.UserProgress, error) {
	if len(userIDs) == 0 {
		return map[string]*model.UserProgress{}, nil
	}

	var rows []model.UserProgress
	if err := r.db.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "Failed to load progress records")
	}

	byUser := make(map[string]*model.UserProgress, len(rows))
	for i := range rows {
		byUser[rows[i].UserID] = &rows[i]
	}
	return byUser, nil
}

func (r *ProgressRepository) GetAllProgress() ([]model.UserProgress, error) {
	var rows []model.UserProgress
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, wrapDBError(err, "Failed to load progress records")
	}
	return rows, nil
}

// GetUsernames resolves display names from the identity mirror. Missing
// entries are simply absent from the result; callers fall back to the id.
func (r *ProgressRepository) GetUsernames(userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	var users []model.User
	if err := r.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "Failed to load usernames")
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
