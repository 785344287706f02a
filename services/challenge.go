// services/challenge.go
package services

import (
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/services/repositories"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type challengeStore interface {
	GetActiveChallenges(now time.Time) ([]model.Challenge, error)
	GetOrCreateProgress(userID, challengeID string) (*model.UserChallengeProgress, error)
	SaveProgress(progress *model.UserChallengeProgress) error
	MarkCompleted(userID, challengeID string) (bool, error)
	GetUserProgress(userID string, challengeIDs []string) (map[string]*model.UserChallengeProgress, error)
}

type ChallengeService struct {
	context.DefaultService

	store challengeStore
	now   func() time.Time
}

const CHALLENGE_SVC = "challenge_svc"

func (svc ChallengeService) Id() string {
	return CHALLENGE_SVC
}

func (svc *ChallengeService) Start() error {
	if DatabaseDriver() == DriverSqlite {
		svc.store = repositories.NewChallengeRepository(svc.Service(SQLITE_SVC).(*SqliteService).Db())
	} else {
		svc.store = repositories.NewChallengeRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	}
	svc.now = time.Now
	return nil
}

// affectedCounters maps an activity type to the counters it can move.
// Streak, XP, and level move on every activity.
func affectedCounters(activityType string) map[string]bool {
	affected := map[string]bool{
		shared.CounterStreakDays:   true,
		shared.CounterTotalXP:      true,
		shared.CounterCurrentLevel: true,
	}
	switch activityType {
	case shared.ActivityTypeModule:
		affected[shared.CounterModulesCompleted] = true
	case shared.ActivityTypeQuiz:
		affected[shared.CounterQuizzesCompleted] = true
		affected[shared.CounterPerfectScores] = true
	case shared.ActivityTypeSimulation:
		affected[shared.CounterSimulationsCompleted] = true
	}
	return affected
}

// Update advances every in-window, not-yet-completed challenge whose
// requirement counter this activity touched. Challenge progress mirrors the
// user's lifetime counter rather than a window-scoped delta, so a challenge
// can complete on its first matching activity if the user already exceeded
// the target before the window opened. Completion flips once; the guarded
// update in the store keeps racing activities from double-crediting.
func (svc *ChallengeService) Update(userID, activityType string, snapshot *model.UserProgress) ([]model.Challenge, error) {
	active, err := svc.store.GetActiveChallenges(svc.now())
	if err != nil {
		return nil, err
	}

	affected := affectedCounters(activityType)

	var completed []model.Challenge
	for _, challenge := range active {
		counter, target, ok := svc.singleRequirement(challenge)
		if !ok || !affected[counter] {
			continue
		}

		progress, err := svc.store.GetOrCreateProgress(userID, challenge.ID)
		if err != nil {
			return completed, err
		}
		if progress.Completed {
			continue
		}

		value := model.CounterValue(snapshot, counter)
		if progress.Progress == nil {
			progress.Progress = model.RequirementMap{}
		}
		progress.Progress[counter] = value
		if err := svc.store.SaveProgress(progress); err != nil {
			return completed, err
		}

		if value >= target {
			flipped, err := svc.store.MarkCompleted(userID, challenge.ID)
			if err != nil {
				return completed, err
			}
			if !flipped {
				continue
			}

			log.WithFields(log.Fields{
				"user_id":        userID,
				"challenge_id":   challenge.ID,
				"challenge_type": challenge.ChallengeType,
			}).Info("Challenge completed")
			RecordChallengeCompleted(challenge.ChallengeType)

			completed = append(completed, challenge)
		}
	}

	return completed, nil
}

// singleRequirement extracts the challenge's one (counter, target) pair.
// The catalog supports exactly one key per challenge; malformed entries are
// skipped with a warning rather than failing the whole pass.
func (svc *ChallengeService) singleRequirement(challenge model.Challenge) (string, int, bool) {
	if len(challenge.Requirements) != 1 {
		log.WithFields(log.Fields{
			"challenge_id": challenge.ID,
			"keys":         len(challenge.Requirements),
		}).Warn("Challenge must have exactly one requirement, skipping")
		return "", 0, false
	}

	for counter, target := range challenge.Requirements {
		if !shared.KnownCounters[counter] {
			log.WithFields(log.Fields{
				"challenge_id": challenge.ID,
				"counter":      counter,
			}).Warn("Challenge references unknown counter, skipping")
			return "", 0, false
		}
		if target <= 0 {
			log.WithField("challenge_id", challenge.ID).Warn("Challenge target must be positive, skipping")
			return "", 0, false
		}
		return counter, target, true
	}
	return "", 0, false
}

// GetUserChallenges returns the active challenges annotated with the user's
// progress, percentage clamped to 100 even when the mirrored counter has
// overshot the target.
func (svc *ChallengeService) GetUserChallenges(userID string) (*dto.ChallengeListResponse, error) {
	active, err := svc.store.GetActiveChallenges(svc.now())
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(active))
	for i, c := range active {
		ids[i] = c.ID
	}

	progressByID, err := svc.store.GetUserProgress(userID, ids)
	if err != nil {
		return nil, err
	}

	challenges := make([]dto.ChallengeResponse, 0, len(active))
	for _, challenge := range active {
		resp := dto.ChallengeResponse{
			ID:            challenge.ID,
			Title:         challenge.Title,
			Description:   challenge.Description,
			ChallengeType: challenge.ChallengeType,
			Requirements:  challenge.Requirements,
			Progress:      map[string]int{},
			XPReward:      challenge.XPReward,
			StartDate:     challenge.StartDate,
			EndDate:       challenge.EndDate,
		}

		if progress, ok := progressByID[challenge.ID]; ok {
			resp.Progress = progress.Progress
			resp.Completed = progress.Completed
			resp.CompletedAt = progress.CompletedAt
		}

		if counter, target, ok := svc.singleRequirement(challenge); ok {
			resp.ProgressPercent = progressPercent(resp.Progress[counter], target)
		}

		challenges = append(challenges, resp)
	}

	return &dto.ChallengeListResponse{
		Challenges: challenges,
		Total:      len(challenges),
	}, nil
}

func progressPercent(current, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := float64(current) / float64(target) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func challengeToResponse(challenge model.Challenge) dto.ChallengeResponse {
	return dto.ChallengeResponse{
		ID:            challenge.ID,
		Title:         challenge.Title,
		Description:   challenge.Description,
		ChallengeType: challenge.ChallengeType,
		Requirements:  challenge.Requirements,
		XPReward:      challenge.XPReward,
		StartDate:     challenge.StartDate,
		EndDate:       challenge.EndDate,
		Completed:     true,
	}
}
