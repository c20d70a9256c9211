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
	"os"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/advisor/optimize"
	"github.com/penny-vault/advisor/store"
	"github.com/penny-vault/advisor/strategies"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var optimizeDays int
var optimizeDate string
var optimizeTop int
var optimizeWorkers int
var optimizeSave bool

func init() {
	optimizeCmd.Flags().IntVar(&optimizeDays, "days", 365, "calendar days of history to search over")
	optimizeCmd.Flags().StringVarP(&optimizeDate, "date", "d", "", "end date 2006-01-02 (default: most recent trading day)")
	optimizeCmd.Flags().IntVar(&optimizeTop, "top", 10, "number of ranked candidates to display")
	optimizeCmd.Flags().IntVar(&optimizeWorkers, "workers", 0, "parallel evaluation workers (default: NumCPU)")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "persist the winning parameters to the database")
	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [strategy]",
	Short: "Grid search strategy parameters against history",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		shortcode := viper.GetString("advisor.strategy")
		if len(args) == 1 {
			shortcode = args[0]
		}

		strategies.InitializeStrategyMap()

		candidates := optimize.GridFor(shortcode)
		if len(candidates) == 0 {
			log.Fatal().Str("Strategy", shortcode).Msg("no parameter grid for strategy")
		}

		manager := buildManager()
		series, err := fetchSeries(ctx, manager, asOfDate(optimizeDate), optimizeDays)
		if err != nil {
			log.Fatal().Err(err).Msg("could not fetch optimization history")
		}

		search := optimize.NewSearch(shortcode, series)
		if optimizeWorkers > 0 {
			search.Workers = optimizeWorkers
		}

		log.Info().Str("Strategy", shortcode).Int("Candidates", len(candidates)).Msg("starting grid search")
		ranked, err := search.Run(ctx, candidates)
		if err != nil {
			log.Fatal().Err(err).Msg("grid search failed")
		}

		printRanked(ranked, optimizeTop)

		if optimizeSave {
			best := ranked[0]
			if err := connectStore(ctx); err != nil {
				log.Fatal().Err(err).Msg("could not connect to database")
			}
			if err := store.SaveParameters(ctx, shortcode, best.Candidate.Args, best.Metrics); err != nil {
				log.Fatal().Err(err).Msg("could not persist winning parameters")
			}
			fmt.Printf("\nsaved optimized parameters for %s\n", shortcode)
		}
	},
}

func printRanked(ranked []optimize.RankedResult, top int) {
	if top > len(ranked) {
		top = len(ranked)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Objective", "Return", "Alpha", "Sharpe", "Win Rate", "Accuracy", "Max DD", "Parameters"})
	table.SetBorder(false)
	for i := 0; i < top; i++ {
		r := ranked[i]
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.3f", r.Objective),
			fmt.Sprintf("%.2f%%", r.Metrics.TotalReturn),
			fmt.Sprintf("%.2f%%", r.Metrics.Alpha),
			fmt.Sprintf("%.2f", r.Metrics.SharpeRatio),
			fmt.Sprintf("%.1f%%", r.Metrics.WinRate),
			fmt.Sprintf("%.1f%%", r.Metrics.Accuracy),
			fmt.Sprintf("%.2f%%", r.Metrics.MaxDrawdown),
			formatArgs(r.Candidate.Args),
		})
	}
	table.Render()
}

func formatArgs(args map[string]json.RawMessage) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(raw)
}
