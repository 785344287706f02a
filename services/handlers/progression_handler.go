package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type ProgressionHandler struct {
	progressionSvc ProgressionServiceInterface
	achievementSvc AchievementServiceInterface
	challengeSvc   ChallengeServiceInterface
}

func NewProgressionHandler(
	progressionSvc ProgressionServiceInterface,
	achievementSvc AchievementServiceInterface,
	challengeSvc ChallengeServiceInterface,
) *ProgressionHandler {
	return &ProgressionHandler{
		progressionSvc: progressionSvc,
		achievementSvc: achievementSvc,
		challengeSvc:   challengeSvc,
	}
}

// @Summary Initialize progress
// @Description Create the progress record with the onboarding XP bonus. Idempotent.
// @Tags progression
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 201 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress/init [post]
func (h *ProgressionHandler) InitializeProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	progress, err := h.progressionSvc.InitializeProgress(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Created", progress)
}

// @Summary Apply activity
// @Description Record a completed activity, award XP, and evaluate achievements and challenges
// @Tags progression
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param activityRequest body dto.ActivityRequest true "Completed activity"
// @Success 200 {object} shared.Response{data=dto.ActivityResponse}
// @Router /api/v1/activity [post]
func (h *ProgressionHandler) ApplyActivity(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.ActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	result, err := h.progressionSvc.ApplyActivity(userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", result)
}

// @Summary Get progress
// @Description Get the user's XP, level, counters, and streak
// @Tags progression
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.ProgressResponse}
// @Router /api/v1/progress [get]
func (h *ProgressionHandler) GetProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	progress, err := h.progressionSvc.GetProgress(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", progress)
}

// @Summary Get achievements
// @Description Get the achievement catalog annotated with the user's unlocks
// @Tags achievements
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.AchievementListResponse}
// @Router /api/v1/achievements [get]
func (h *ProgressionHandler) GetAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	achievements, err := h.achievementSvc.GetUserAchievementList(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", achievements)
}

// @Summary Recheck achievements
// @Description Re-evaluate the catalog against current progress and credit missed unlocks
// @Tags achievements
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.RecheckResponse}
// @Router /api/v1/achievements/recheck [post]
func (h *ProgressionHandler) RecheckAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	result, err := h.progressionSvc.RecheckAchievements(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", result)
}

// @Summary Get challenges
// @Description Get the active challenges with the user's progress and completion state
// @Tags challenges
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.ChallengeListResponse}
// @Router /api/v1/challenges [get]
func (h *ProgressionHandler) GetChallenges(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	challenges, err := h.challengeSvc.GetUserChallenges(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", challenges)
}
