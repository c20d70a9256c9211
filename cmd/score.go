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

	"github.com/penny-vault/advisor/messenger"
	"github.com/penny-vault/advisor/notify"
	"github.com/penny-vault/advisor/pipeline"
	"github.com/penny-vault/advisor/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scoreDate string
var scoreDryRun bool

func init() {
	scoreCmd.Flags().StringVarP(&scoreDate, "date", "d", "", "date to score for 2006-01-02 (default: most recent trading day)")
	scoreCmd.Flags().BoolVarP(&scoreDryRun, "dry-run", "n", false, "compute the decision but skip persistence and notification")
	rootCmd.AddCommand(scoreCmd)
}

var scoreCmd = &cobra.Command{
	Use:     "daily-score",
	Aliases: []string{"score"},
	Short:   "Compute and persist today's allocation decision",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDailyScore(context.Background(), asOfDate(scoreDate), scoreDryRun); err != nil {
			log.Fatal().Err(err).Msg("could not compute daily decision")
		}
	},
}

func runDailyScore(ctx context.Context, asOf time.Time, dryRun bool) error {
	useStore := !dryRun && viper.GetString("database.url") != ""
	if useStore {
		if err := connectStore(ctx); err != nil {
			return err
		}
	}

	strat, err := buildStrategy(ctx, useStore)
	if err != nil {
		return err
	}

	manager := buildManager()
	pipe := pipeline.New(manager, strat, viper.GetString("advisor.ticker"), riskFromConfig())

	// without today's close no decision can be made
	decision, err := pipe.Run(ctx, asOf)
	if err != nil {
		return err
	}

	fmt.Print(notify.FormatDecision(decision))

	if dryRun {
		return nil
	}

	if useStore {
		if err := store.SaveDecision(ctx, decision); err != nil {
			return err
		}
	}

	if viper.GetString("nats.server") != "" {
		if err := messenger.Initialize(); err != nil {
			log.Warn().Err(err).Msg("could not connect to nats")
		} else {
			defer messenger.Close()
			if err := messenger.PublishDecision(decision); err != nil {
				log.Warn().Err(err).Msg("could not publish decision")
			}
			if decision.RiskFlags.Triggered() {
				if err := messenger.PublishAlert(decision); err != nil {
					log.Warn().Err(err).Msg("could not publish risk alert")
				}
			}
		}
	}

	if telegram := telegramFromConfig(); telegram != nil {
		if err := telegram.Send(ctx, notify.FormatDecision(decision)); err != nil {
			log.Warn().Err(err).Msg("could not send telegram notification")
		}
	}

	return nil
}
