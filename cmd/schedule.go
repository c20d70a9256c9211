// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/penny-vault/advisor/common"
	"github.com/penny-vault/advisor/tradecal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	if err := viper.BindEnv("schedule.score_cron", "ADVISOR_SCORE_CRON"); err != nil {
		log.Panic().Err(err).Msg("could not bind schedule.score_cron")
	}
	viper.SetDefault("schedule.score_cron", "30 16 * * 1-5")
	viper.SetDefault("schedule.validate_cron", "0 9 * * 1-5")
	viper.SetDefault("schedule.weekly_cron", "0 10 * * 6")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the advisor as a daemon on the exchange calendar",
	Long: `Runs the daily score after the close on trading days, the
validation check the following morning, and the weekly review on
Saturdays. Occurrences on market holidays are skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		scoreCron := viper.GetString("schedule.score_cron")
		validateCron := viper.GetString("schedule.validate_cron")
		weeklyCron := viper.GetString("schedule.weekly_cron")

		nyc := common.GetTimezone()
		announceNextRuns(scoreCron, validateCron, weeklyCron)

		scheduler := gocron.NewScheduler(nyc)
		if _, err := scheduler.Cron(scoreCron).Do(marketDayJob("daily-score", func(ctx context.Context, asOf time.Time) error {
			return runDailyScore(ctx, asOf, false)
		})); err != nil {
			log.Fatal().Err(err).Str("Cron", scoreCron).Msg("could not schedule daily score")
		}
		if _, err := scheduler.Cron(validateCron).Do(marketDayJob("validate-yesterday", runValidation)); err != nil {
			log.Fatal().Err(err).Str("Cron", validateCron).Msg("could not schedule validation")
		}
		if _, err := scheduler.Cron(weeklyCron).Do(func() {
			nyc := common.GetTimezone()
			asOf := tradecal.MostRecentTradingDay(time.Now().In(nyc))
			if err := runWeeklyReview(context.Background(), asOf, 7); err != nil {
				log.Error().Err(err).Msg("weekly review failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("Cron", weeklyCron).Msg("could not schedule weekly review")
		}
		scheduler.StartAsync()

		// block until interrupted
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		sig := <-c
		log.Info().Str("Signal", sig.String()).Msg("shutting down scheduler")
		scheduler.Stop()
	},
}

// marketDayJob wraps a run function so that cron occurrences landing on
// holidays are skipped rather than scored against stale data
func marketDayJob(name string, run func(context.Context, time.Time) error) func() {
	return func() {
		nyc := common.GetTimezone()
		now := time.Now().In(nyc)
		if !tradecal.IsMarketDay(now) {
			log.Info().Str("Job", name).Msg("market holiday, skipping")
			return
		}
		if err := run(context.Background(), tradecal.MostRecentTradingDay(now)); err != nil {
			log.Error().Err(err).Str("Job", name).Msg("scheduled job failed")
		}
	}
}

func announceNextRuns(specs ...string) {
	now := time.Now().In(common.GetTimezone())
	for _, spec := range specs {
		sched, err := tradecal.NewSchedule(spec)
		if err != nil {
			log.Fatal().Err(err).Str("Cron", spec).Msg("could not parse cron expression")
		}
		log.Info().Str("Cron", spec).Time("NextRun", sched.Next(now)).Msg("scheduled")
	}
}
