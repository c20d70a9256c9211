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

package pipeline

import (
	"errors"
	"math"
	"time"

	"github.com/penny-vault/advisor/data"
)

var ErrNoDecisions = errors.New("no decisions to review")

// ValidationResult compares yesterday's persisted prediction against
// today's realized move
type ValidationResult struct {
	Date           time.Time `json:"date"`
	PredictionDate time.Time `json:"prediction_date"`
	Predicted      string    `json:"predicted_direction"`
	Actual         string    `json:"actual_direction"`
	ActualChange   float64   `json:"actual_change_pct"`
	Correct        bool      `json:"is_correct"`
	PnLPct         float64   `json:"pnl_pct"`
	PrevRiskyPct   float64   `json:"prev_risky_pct"`
	PrevClose      float64   `json:"prev_close"`
	TodayClose     float64   `json:"today_close"`
}

// classifyMove labels a daily change; moves inside a tenth of a percent
// are considered flat
func classifyMove(changePct float64) string {
	switch {
	case changePct > 0.1:
		return "bullish"
	case changePct < -0.1:
		return "bearish"
	default:
		return "neutral"
	}
}

// Validate checks a prior decision's next day bias against the realized
// quote. A bullish call counts on any up day and a bearish call on any
// down day; a neutral call counts when the move stayed under half a
// percent either way.
func Validate(prev *Decision, today data.Quote, asOf time.Time) *ValidationResult {
	actual := classifyMove(today.ChangePct)

	correct := prev.NextDayBias == actual
	switch {
	case correct:
	case prev.NextDayBias == "bullish" && today.ChangePct > 0:
		correct = true
	case prev.NextDayBias == "bearish" && today.ChangePct < 0:
		correct = true
	case prev.NextDayBias == "neutral" && math.Abs(today.ChangePct) < 0.5:
		correct = true
	}

	return &ValidationResult{
		Date:           asOf,
		PredictionDate: prev.Date,
		Predicted:      prev.NextDayBias,
		Actual:         actual,
		ActualChange:   today.ChangePct,
		Correct:        correct,
		PnLPct:         math.Round(today.ChangePct*prev.Allocation.RiskyPct) / 100,
		PrevRiskyPct:   prev.Allocation.RiskyPct,
		PrevClose:      prev.MarketSnapshot.Close,
		TodayClose:     today.Close,
	}
}

// WeeklySummary aggregates a week of decisions into headline numbers
type WeeklySummary struct {
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	TradingDays        int       `json:"trading_days"`
	WeekReturnPct      float64   `json:"week_return_pct"`
	BenchmarkReturnPct float64   `json:"benchmark_return_pct"`
	AlphaPct           float64   `json:"alpha_pct"`
	WinDays            int       `json:"win_days"`
	LoseDays           int       `json:"lose_days"`
	WinRatePct         float64   `json:"win_rate_pct"`
	ProfitLossRatio    float64   `json:"profit_loss_ratio"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	AccuracyPct        float64   `json:"prediction_accuracy_pct"`
}

// WeeklyReview summarizes the week's persisted decisions. Each day's
// portfolio return is the day's market change scaled by the prior
// allocation; the benchmark is the unscaled sum of daily changes.
func WeeklyReview(decisions []*Decision) (*WeeklySummary, error) {
	if len(decisions) == 0 {
		return nil, ErrNoDecisions
	}

	summary := &WeeklySummary{
		Start:       decisions[0].Date,
		End:         decisions[len(decisions)-1].Date,
		TradingDays: len(decisions),
	}

	var gains, losses float64
	var gainDays, lossDays int
	var correct, predicted int
	var cum, peak, maxDD float64

	for _, d := range decisions {
		change := d.MarketSnapshot.ChangePct
		pnl := change * d.Allocation.RiskyPct / 100

		summary.WeekReturnPct += pnl
		summary.BenchmarkReturnPct += change

		if pnl > 0 {
			gains += pnl
			gainDays++
		} else if pnl < 0 {
			losses -= pnl
			lossDays++
		}

		if d.NextDayBias != "" {
			predicted++
			if (d.NextDayBias == "bullish" && change > 0) ||
				(d.NextDayBias == "bearish" && change < 0) ||
				(d.NextDayBias == "neutral" && math.Abs(change) < 0.5) {
				correct++
			}
		}

		cum += pnl
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}

	summary.AlphaPct = summary.WeekReturnPct - summary.BenchmarkReturnPct
	summary.WinDays = gainDays
	summary.LoseDays = lossDays
	summary.WinRatePct = float64(gainDays) / float64(len(decisions)) * 100

	avgLoss := 1.0
	if lossDays > 0 {
		avgLoss = losses / float64(lossDays)
	}
	if gainDays > 0 && avgLoss > 0 {
		summary.ProfitLossRatio = gains / float64(gainDays) / avgLoss
	}

	summary.MaxDrawdownPct = maxDD
	if predicted > 0 {
		summary.AccuracyPct = float64(correct) / float64(predicted) * 100
	}

	return summary, nil
}
