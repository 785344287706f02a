package handlers

import (
	"github.com/pitchlab-hq/pitch_api/dto"
)

type ProgressionServiceInterface interface {
	ApplyActivity(userID string, req dto.ActivityRequest) (*dto.ActivityResponse, error)
	GetProgress(userID string) (*dto.ProgressResponse, error)
	InitializeProgress(userID string) (*dto.ProgressResponse, error)
	RecheckAchievements(userID string) (*dto.RecheckResponse, error)
}

type AchievementServiceInterface interface {
	GetUserAchievementList(userID string) (*dto.AchievementListResponse, error)
}

type ChallengeServiceInterface interface {
	GetUserChallenges(userID string) (*dto.ChallengeListResponse, error)
}

type LeaderboardServiceInterface interface {
	TopN(n int, currentUserID string) (*dto.LeaderboardResponse, error)
	RankOf(userID string) (*dto.RankResponse, error)
}

type JWTServiceInterface interface {
	ExtractTokenFromHeader(authHeader string) (string, error)
	VerifyJWTToken(token string) (string, error)
}
