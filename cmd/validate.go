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
	"github.com/penny-vault/advisor/tradecal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateDate string

func init() {
	validateCmd.Flags().StringVarP(&validateDate, "date", "d", "", "date to validate against 2006-01-02 (default: most recent trading day)")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:     "validate-yesterday",
	Aliases: []string{"validate"},
	Short:   "Grade the previous decision against today's realized move",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidation(context.Background(), asOfDate(validateDate)); err != nil {
			log.Fatal().Err(err).Msg("could not validate previous decision")
		}
	},
}

func runValidation(ctx context.Context, asOf time.Time) error {
	if err := connectStore(ctx); err != nil {
		return err
	}

	prevDay := tradecal.PrevTradingDay(asOf)
	ticker := viper.GetString("advisor.ticker")
	strategyName := viper.GetString("advisor.strategy")

	prev, err := store.GetDecision(ctx, prevDay, ticker, strategyName)
	if err != nil {
		log.Warn().Err(err).Time("PrevTradingDay", prevDay).Msg("no decision recorded for previous trading day")
		return err
	}

	manager := buildManager()
	quote, err := manager.FetchQuote(ctx, ticker, asOf)
	if err != nil {
		return err
	}

	result := pipeline.Validate(prev, quote, asOf)
	fmt.Print(notify.FormatValidation(result))

	if telegram := telegramFromConfig(); telegram != nil {
		if err := telegram.Send(ctx, notify.FormatValidation(result)); err != nil {
			log.Warn().Err(err).Msg("could not send telegram notification")
		}
	}

	return nil
}
