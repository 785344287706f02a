package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pitchlab-hq/pitch_api/shared"
)

type LeaderboardHandler struct {
	leaderboardSvc LeaderboardServiceInterface
	jwtSvc         JWTServiceInterface
}

func NewLeaderboardHandler(leaderboardSvc LeaderboardServiceInterface, jwtSvc JWTServiceInterface) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardSvc: leaderboardSvc,
		jwtSvc:         jwtSvc,
	}
}

// @Summary Get Leaderboard
// @Description Get the all-time XP leaderboard. Authenticated callers outside the slice get their own entry attached.
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param limit query int false "Limit results (default 50, max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var userID string
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if token, err := h.jwtSvc.ExtractTokenFromHeader(authHeader); err == nil {
			if uid, err := h.jwtSvc.VerifyJWTToken(token); err == nil {
				userID = uid
			}
		}
	}

	leaderboard, err := h.leaderboardSvc.TopN(limit, userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", leaderboard)
}

// @Summary Get rank
// @Description Get the caller's 1-based leaderboard rank
// @Tags leaderboard
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.RankResponse}
// @Router /api/v1/leaderboard/rank [get]
func (h *LeaderboardHandler) GetRank(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	rank, err := h.leaderboardSvc.RankOf(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", rank)
}
