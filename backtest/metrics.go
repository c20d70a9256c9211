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

package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const tradingDaysPerYear = 252

// Metrics are the headline numbers computed from a completed run
type Metrics struct {
	TotalReturn     float64 `json:"total_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	Alpha           float64 `json:"alpha"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	WinRate         float64 `json:"win_rate"`
	ProfitLossRatio float64 `json:"profit_loss_ratio"`
	TradeCount      int     `json:"trade_count"`
	Accuracy        float64 `json:"prediction_accuracy"`
}

// CalculateMetrics reduces the daily series to summary statistics. Daily
// P&L numbers are percent values; win rate and accuracy come back as
// percentages as well.
func CalculateMetrics(daily []DailyResult, benchmarkReturn float64, correct, predicted int) Metrics {
	m := Metrics{
		BenchmarkReturn: round2(benchmarkReturn),
		TradeCount:      predicted,
	}
	if len(daily) == 0 {
		return m
	}

	pnls := make([]float64, len(daily))
	curve := make([]float64, len(daily))
	for ii := range daily {
		pnls[ii] = daily[ii].PnLPct
		curve[ii] = daily[ii].CumulativePnL
	}

	m.TotalReturn = round2(curve[len(curve)-1])
	m.Alpha = round2(m.TotalReturn - m.BenchmarkReturn)
	m.SharpeRatio = round2(SharpeRatio(pnls))
	m.MaxDrawdown = round2(MaxDrawdown(curve))

	var winDays, loseDays int
	var gains, losses float64
	for _, p := range pnls {
		if p > 0 {
			winDays++
			gains += p
		} else if p < 0 {
			loseDays++
			losses -= p
		}
	}

	m.WinRate = round1(float64(winDays) / float64(len(pnls)) * 100)

	avgLoss := 1.0
	if loseDays > 0 {
		avgLoss = losses / float64(loseDays)
	}
	if winDays > 0 {
		m.ProfitLossRatio = round2(gains / float64(winDays) / avgLoss)
	}

	if predicted > 0 {
		m.Accuracy = round1(float64(correct) / float64(predicted) * 100)
	}

	return m
}

// SharpeRatio annualizes the mean daily P&L over its sample standard
// deviation, 0 when the series never varies
func SharpeRatio(pnls []float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(pnls, nil)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}

// MaxDrawdown is the largest peak to trough decline of the cumulative
// curve, relative to the running peak and reported as a positive percent.
// Stretches where the curve has not yet risen above zero fall back to the
// absolute decline, since a relative drawdown is undefined there.
func MaxDrawdown(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0]
	var maxDD float64
	for _, c := range curve {
		if c > peak {
			peak = c
		}
		dd := peak - c
		if peak > 0 {
			dd = dd / peak * 100
		}
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
