package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/dto"
	"github.com/pitchlab-hq/pitch_api/middleware"
	"github.com/pitchlab-hq/pitch_api/services/handlers"
	"github.com/pitchlab-hq/pitch_api/shared"
)

type HttpService struct {
	context.DefaultService

	jwtSvc         *JWTService
	redisSvc       *RedisService
	monitoringSvc  *MonitoringService
	progressionSvc *ProgressionService
	achievementSvc *AchievementService
	challengeSvc   *ChallengeService
	leaderboardSvc *LeaderboardService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.progressionSvc = svc.Service(PROGRESSION_SVC).(*ProgressionService)
	svc.achievementSvc = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.challengeSvc = svc.Service(CHALLENGE_SVC).(*ChallengeService)
	svc.leaderboardSvc = svc.Service(LEADERBOARD_SVC).(*LeaderboardService)

	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		JSONEncoder:  shared.JSONEncoder,
		JSONDecoder:  shared.JSONDecoder,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(MonitoringMiddleware(svc.monitoringSvc))

	svc.registerRoutes(app)

	svc.server = app

	log.WithField("port", svc.port).Info("HTTP server started")
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	limiter := middleware.NewLimiter(svc.redisSvc)
	requiredAuth := middleware.RequiredAuth(svc.jwtSvc)

	progressionHandler := handlers.NewProgressionHandler(svc.progressionSvc, svc.achievementSvc, svc.challengeSvc)
	leaderboardHandler := handlers.NewLeaderboardHandler(svc.leaderboardSvc, svc.jwtSvc)

	app.Get("/ping", svc.ping)

	v1 := app.Group("/api/v1", limiter.Limit("api_general"))

	v1.Post("/progress/init", requiredAuth, progressionHandler.InitializeProgress)
	v1.Post("/activity", requiredAuth, limiter.Limit("activity"), progressionHandler.ApplyActivity)
	v1.Get("/progress", requiredAuth, progressionHandler.GetProgress)

	v1.Get("/achievements", requiredAuth, progressionHandler.GetAchievements)
	v1.Post("/achievements/recheck", requiredAuth, progressionHandler.RecheckAchievements)

	v1.Get("/challenges", requiredAuth, progressionHandler.GetChallenges)

	v1.Get("/leaderboard", leaderboardHandler.GetLeaderboard)
	v1.Get("/leaderboard/rank", requiredAuth, leaderboardHandler.GetRank)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		var validationErrors validator.ValidationErrors
		if errors.As(appErr.Err, &validationErrors) {
			return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, dto.FormatValidationErrors(validationErrors))
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.WithError(err).WithField("path", c.Path()).Error("Unhandled request error")
	return shared.ResponseInternalError(c, err)
}
