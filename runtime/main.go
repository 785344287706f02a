package main

import (
	"github.com/pitchlab-hq/pitch_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	ctx, err := context.NewCtx(

		&services.JWTService{},
		&services.PostgresService{},
		&services.SqliteService{},
		&services.RedisService{},
		&services.MonitoringService{},

		&services.AchievementService{},
		&services.ChallengeService{},
		&services.LeaderboardService{},
		&services.ProgressionService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
