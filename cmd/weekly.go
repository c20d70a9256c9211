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
	"fmt"
	"time"

	"github.com/penny-vault/advisor/notify"
	"github.com/penny-vault/advisor/pipeline"
	"github.com/penny-vault/advisor/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var weeklyDays int

func init() {
	weeklyCmd.Flags().IntVar(&weeklyDays, "days", 7, "lookback window in calendar days")
	rootCmd.AddCommand(weeklyCmd)
}

var weeklyCmd = &cobra.Command{
	Use:     "weekly-review",
	Aliases: []string{"weekly"},
	Short:   "Summarize the past week's decisions and performance",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runWeeklyReview(context.Background(), asOfDate(""), weeklyDays); err != nil {
			log.Fatal().Err(err).Msg("could not build weekly review")
		}
	},
}

func runWeeklyReview(ctx context.Context, asOf time.Time, days int) error {
	if err := connectStore(ctx); err != nil {
		return err
	}

	since := asOf.AddDate(0, 0, -days)
	ticker := viper.GetString("advisor.ticker")
	strategyName := viper.GetString("advisor.strategy")

	decisions, err := store.GetRecentDecisions(ctx, ticker, strategyName, since)
	if err != nil {
		return err
	}

	summary, err := pipeline.WeeklyReview(decisions)
	if err != nil {
		return err
	}

	fmt.Print(notify.FormatWeekly(summary))

	if telegram := telegramFromConfig(); telegram != nil {
		if err := telegram.Send(ctx, notify.FormatWeekly(summary)); err != nil {
			log.Warn().Err(err).Msg("could not send telegram notification")
		}
	}

	return nil
}
