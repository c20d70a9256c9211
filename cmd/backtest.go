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
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/advisor/backtest"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/store"
	"github.com/penny-vault/advisor/strategies"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var backtestDays int
var backtestDate string
var backtestShares bool
var backtestSave bool

func init() {
	backtestCmd.Flags().IntVar(&backtestDays, "days", 365, "calendar days of history to replay")
	backtestCmd.Flags().StringVarP(&backtestDate, "date", "d", "", "end date 2006-01-02 (default: most recent trading day)")
	backtestCmd.Flags().BoolVar(&backtestShares, "shares", false, "simulate integer share positions instead of additive returns")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "persist the run to the database")
	rootCmd.AddCommand(backtestCmd)
}

// fetchSeries pulls aligned price, vix and treasury history for the
// configured ticker ending at asOf
func fetchSeries(ctx context.Context, manager *data.Manager, asOf time.Time, days int) (*backtest.Series, error) {
	begin := asOf.AddDate(0, 0, -days)
	ticker := viper.GetString("advisor.ticker")

	bars, err := manager.FetchHistory(ctx, ticker, begin, asOf)
	if err != nil {
		return nil, err
	}

	vixBars, err := manager.FetchHistory(ctx, data.SymbolVIX, begin, asOf)
	if err != nil {
		log.Warn().Err(err).Msg("volatility history unavailable, falling back to defaults")
	}

	tnxBars, err := manager.FetchHistory(ctx, data.SymbolUS10Y, begin, asOf)
	if err != nil {
		log.Warn().Err(err).Msg("treasury history unavailable, falling back to defaults")
	}

	return backtest.NewSeries(bars, vixBars, tnxBars), nil
}

var backtestCmd = &cobra.Command{
	Use:   "backtest [strategy]",
	Short: "Replay a strategy over historical data",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		shortcode := viper.GetString("advisor.strategy")
		if len(args) == 1 {
			shortcode = args[0]
		}

		strategies.InitializeStrategyMap()
		strat, err := strategies.New(shortcode, nil)
		if err != nil {
			log.Fatal().Err(err).Str("Strategy", shortcode).Msg("unknown strategy")
		}

		manager := buildManager()
		series, err := fetchSeries(ctx, manager, asOfDate(backtestDate), backtestDays)
		if err != nil {
			log.Fatal().Err(err).Msg("could not fetch backtest history")
		}

		engine := backtest.NewEngine(series)
		if backtestShares {
			engine.Mode = backtest.ModeShares
		}

		result, err := engine.Run(strat)
		if err != nil {
			log.Fatal().Err(err).Msg("backtest failed")
		}

		printBacktestResult(result)

		if backtestSave {
			if err := connectStore(ctx); err != nil {
				log.Fatal().Err(err).Msg("could not connect to database")
			}
			id, err := store.SaveBacktestRun(ctx, result)
			if err != nil {
				log.Fatal().Err(err).Msg("could not persist backtest run")
			}
			fmt.Printf("\nsaved backtest run %s\n", id.String())
		}
	},
}

func printBacktestResult(result *backtest.Result) {
	m := result.Metrics

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.AppendBulk([][]string{
		{"Total Return", fmt.Sprintf("%.2f%%", m.TotalReturn)},
		{"Benchmark Return", fmt.Sprintf("%.2f%%", m.BenchmarkReturn)},
		{"Alpha", fmt.Sprintf("%.2f%%", m.Alpha)},
		{"Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdown)},
		{"Win Rate", fmt.Sprintf("%.1f%%", m.WinRate)},
		{"P/L Ratio", fmt.Sprintf("%.2f", m.ProfitLossRatio)},
		{"Signal Accuracy", fmt.Sprintf("%.1f%%", m.Accuracy)},
		{"Trades", fmt.Sprintf("%d", m.TradeCount)},
	})
	table.Render()

	if len(result.Daily) > 1 {
		curve := make([]float64, len(result.Daily))
		for i, day := range result.Daily {
			curve[i] = day.CumulativePnL
		}
		fmt.Printf("\nCumulative P&L (%%)\n\n")
		fmt.Println(asciigraph.Plot(curve, asciigraph.Height(12), asciigraph.Width(72)))
	}

	if result.FinalNAV > 0 {
		fmt.Printf("\nFinal NAV: $%.2f over %d trades\n", result.FinalNAV, len(result.Trades))
	}
}
