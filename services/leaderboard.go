// services/leaderboard.go
package services

import (
	"context"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/services/repositories"
)

const leaderboardKey = "leaderboard:xp"

type rankSource interface {
	GetProgress(userID string) (*model.UserProgress, error)
	GetTopByXP(limit int) ([]model.UserProgress, error)
	GetProgressByUserIDs(userIDs []string) (map[string]*model.UserProgress, error)
	GetAllProgress() ([]model.UserProgress, error)
	CountWithMoreXP(totalXP int) (int64, error)
	GetUsernames(userIDs []string) (map[string]string, error)
}

// LeaderboardService serves ranked views over everyone's XP. The SQL store
// is the source of truth; a Redis ZSet mirror keeps top-N reads off the
// database and is rebuilt periodically in case score updates were missed
// while Redis was down. Rank lookups always come from SQL so ties resolve
// as count(strictly greater XP) + 1 no matter how the mirror orders them.
type LeaderboardService struct {
	appContext.DefaultService

	source    rankSource
	redisSvc  *RedisService
	scheduler gocron.Scheduler
}

const LEADERBOARD_SVC = "leaderboard_svc"

func (svc LeaderboardService) Id() string {
	return LEADERBOARD_SVC
}

func (svc *LeaderboardService) Start() error {
	if DatabaseDriver() == DriverSqlite {
		svc.source = repositories.NewProgressRepository(svc.Service(SQLITE_SVC).(*SqliteService).Db())
	} else {
		svc.source = repositories.NewProgressRepository(svc.Service(POSTGRES_SVC).(*PostgresService).Db())
	}
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	return svc.startSyncScheduler()
}

func (svc *LeaderboardService) startSyncScheduler() error {
	interval := 5 * time.Minute
	if raw := os.Getenv("LEADERBOARD_SYNC_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(svc.SyncMirror),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	svc.scheduler = scheduler
	scheduler.Start()

	log.WithField("interval", interval).Info("Leaderboard sync scheduler started")
	return nil
}

func (svc *LeaderboardService) Shutdown() {
	if svc.scheduler != nil {
		_ = svc.scheduler.Shutdown()
	}
}

// UpdateScore pushes a user's XP into the mirror after every change. Mirror
// failures are logged and left for the periodic resync.
func (svc *LeaderboardService) UpdateScore(userID string, totalXP int) {
	if svc.redisSvc == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := svc.redisSvc.ZAdd(ctx, leaderboardKey, userID, float64(totalXP)); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to update leaderboard mirror")
	}
}

// SyncMirror rebuilds the ZSet from the store.
func (svc *LeaderboardService) SyncMirror() {
	start := time.Now()

	rows, err := svc.source.GetAllProgress()
	if err != nil {
		log.WithError(err).Error("Leaderboard sync failed to load progress records")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, row := range rows {
		if err := svc.redisSvc.ZAdd(ctx, leaderboardKey, row.UserID, float64(row.TotalXP)); err != nil {
			log.WithError(err).Warn("Leaderboard sync aborted")
			return
		}
	}

	ObserveLeaderboardSync(time.Since(start))
	log.WithFields(log.Fields{
		"users":    len(rows),
		"duration": time.Since(start),
	}).Debug("Leaderboard mirror synced")
}

// TopN returns the ranked slice, mirror-first with a store fallback. When
// the caller is authenticated and outside the slice, their own entry is
// attached with a rank computed from the store.
func (svc *LeaderboardService) TopN(n int, currentUserID string) (*dto.LeaderboardResponse, error) {
	rows, err := svc.topFromMirror(n)
	if err != nil || len(rows) == 0 {
		if err != nil {
			log.WithError(err).Warn("Leaderboard mirror unavailable, falling back to store")
		}
		rows, err = svc.source.GetTopByXP(n)
		if err != nil {
			return nil, err
		}
	}

	userIDs := make([]string, len(rows))
	for i, row := range rows {
		userIDs[i] = row.UserID
	}
	usernames, err := svc.source.GetUsernames(userIDs)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve leaderboard usernames")
		usernames = map[string]string{}
	}

	response := &dto.LeaderboardResponse{
		TopUsers: make([]dto.LeaderboardEntry, len(rows)),
	}
	for i, row := range rows {
		entry := dto.LeaderboardEntry{
			Rank:             i + 1,
			UserID:           row.UserID,
			Username:         usernames[row.UserID],
			TotalXP:          row.TotalXP,
			CurrentLevel:     row.CurrentLevel,
			ModulesCompleted: row.ModulesCompleted,
		}
		response.TopUsers[i] = entry

		if row.UserID == currentUserID {
			current := entry
			response.CurrentUser = &current
		}
	}

	if currentUserID != "" && response.CurrentUser == nil {
		if entry, err := svc.rankEntry(currentUserID, usernames); err == nil {
			response.CurrentUser = entry
		}
	}

	return response, nil
}

// topFromMirror orders the slice from Redis and hydrates the rows from the
// store, dropping mirror entries whose progress record has vanished.
func (svc *LeaderboardService) topFromMirror(n int) ([]model.UserProgress, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	members, err := svc.redisSvc.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	userIDs := make([]string, 0, len(members))
	for _, member := range members {
		if id, ok := member.Member.(string); ok {
			userIDs = append(userIDs, id)
		}
	}

	byUser, err := svc.source.GetProgressByUserIDs(userIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]model.UserProgress, 0, len(userIDs))
	for _, id := range userIDs {
		if row, ok := byUser[id]; ok {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

// RankOf computes the user's 1-based rank as the number of users with
// strictly more XP plus one, which keeps tied users consistent regardless
// of ordering.
func (svc *LeaderboardService) RankOf(userID string) (*dto.RankResponse, error) {
	progress, err := svc.source.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	ahead, err := svc.source.CountWithMoreXP(progress.TotalXP)
	if err != nil {
		return nil, err
	}

	return &dto.RankResponse{
		UserID:  userID,
		Rank:    int(ahead) + 1,
		TotalXP: progress.TotalXP,
	}, nil
}

func (svc *LeaderboardService) rankEntry(userID string, usernames map[string]string) (*dto.LeaderboardEntry, error) {
	progress, err := svc.source.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	ahead, err := svc.source.CountWithMoreXP(progress.TotalXP)
	if err != nil {
		return nil, err
	}

	username := usernames[userID]
	if username == "" {
		if names, err := svc.source.GetUsernames([]string{userID}); err == nil {
			username = names[userID]
		}
	}

	return &dto.LeaderboardEntry{
		Rank:             int(ahead) + 1,
		UserID:           userID,
		Username:         username,
		TotalXP:          progress.TotalXP,
		CurrentLevel:     progress.CurrentLevel,
		ModulesCompleted: progress.ModulesCompleted,
	}, nil
}
