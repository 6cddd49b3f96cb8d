package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"

	"github.com/minimarket/pos-api/internal/config"
	"github.com/minimarket/pos-api/internal/obs"
	"github.com/minimarket/pos-api/internal/reports"
)

// The worker schedules the periodic report tasks. The API process consumes
// them, because report generation needs the live in-memory ledger.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		nil,
	)

	// An empty payload makes the consumer default to the previous day.
	cron := fmt.Sprintf("0 %d * * *", cfg.DailyReportHourUTC)
	entryID, err := scheduler.Register(cron, asynq.NewTask(reports.TypeDailyReport, nil))
	if err != nil {
		logger.Fatal().Err(err).Msg("register daily report schedule")
	}
	logger.Info().Str("entry", entryID).Str("cron", cron).Msg("daily report scheduled")

	if err := scheduler.Run(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler stopped")
	}
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
