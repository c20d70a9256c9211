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

// The backtest engine replays a strategy day by day over a historical
// series. Each day is scored from the previous day's data only, so the
// simulated book never sees a close before the market would have printed
// it.
package backtest

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/indicators"
	"github.com/penny-vault/advisor/strategies/strategy"
	"github.com/rs/zerolog/log"
)

// Mode selects how returns accumulate
type Mode int

const (
	// ModeAdditive sums daily weighted percent changes
	ModeAdditive Mode = iota
	// ModeShares simulates integer share positions against a cash balance
	ModeShares
)

const (
	DefaultInitialCapital = 10_000_000
	initialAllocationPct  = 50.0
)

var ErrInsufficientBars = errors.New("a backtest needs at least two bars")

// Trade is one executed buy or sell in share simulation mode
type Trade struct {
	Date   time.Time       `json:"date"`
	Action strategy.Signal `json:"action"`
	Shares int64           `json:"shares"`
	Price  float64         `json:"price"`
	Value  float64         `json:"value"`
}

// DailyResult is one row of the backtest time series
type DailyResult struct {
	Date          time.Time       `json:"date"`
	Close         float64         `json:"close"`
	ChangePct     float64         `json:"change_pct"`
	MA20          float64         `json:"ma20"`
	DaysAbove     int             `json:"days_above_ma20"`
	DaysBelow     int             `json:"days_below_ma20"`
	VIX           float64         `json:"vix"`
	Score         float64         `json:"score"`
	Signal        strategy.Signal `json:"signal"`
	Regime        strategy.Regime `json:"regime"`
	RiskyPct      float64         `json:"risky_pct"`
	PnLPct        float64         `json:"pnl_pct"`
	CumulativePnL float64         `json:"cumulative_pnl"`
	NAV           float64         `json:"nav,omitempty"`
}

// Result is the immutable output of one engine run
type Result struct {
	Strategy   string                     `json:"strategy_name"`
	Parameters map[string]json.RawMessage `json:"parameters"`
	Metrics    Metrics                    `json:"metrics"`
	Daily      []DailyResult              `json:"daily_results"`
	Trades     []Trade                    `json:"trades,omitempty"`
	FinalNAV   float64                    `json:"final_nav,omitempty"`
}

// Engine replays a strategy over an aligned series. The series is treated
// as read only; engines are cheap and a fresh one per run is fine.
type Engine struct {
	Series         *Series
	InitialCapital float64
	Mode           Mode
}

func NewEngine(series *Series) *Engine {
	return &Engine{
		Series:         series,
		InitialCapital: DefaultInitialCapital,
		Mode:           ModeAdditive,
	}
}

// Run simulates strat over the series. A failed scoring day is logged and
// carried forward with the book unchanged; the run itself never aborts on
// a bad day.
func (e *Engine) Run(strat strategy.Strategy) (*Result, error) {
	bars := e.Series.Bars
	if len(bars) < 2 {
		return nil, ErrInsufficientBars
	}

	daily := make([]DailyResult, 0, len(bars)-1)
	trades := []Trade{}

	prevAlloc := initialAllocationPct
	var cumulative float64

	cash := e.InitialCapital
	var shares int64
	prevNAV := e.InitialCapital

	var correct, predicted int

	for ii := 1; ii < len(bars); ii++ {
		change := changePct(bars[ii-1].Close, bars[ii].Close)

		obs, err := e.observationAt(ii - 1)
		if err != nil {
			log.Warn().Err(err).Time("Date", bars[ii].Date).Msg("cannot build observation, carrying book forward")
			continue
		}

		card, err := strat.Score(obs)
		if err != nil {
			log.Warn().Err(err).Time("Date", bars[ii].Date).Msg("scoring failed, carrying book forward")
			continue
		}

		alloc := strat.Allocate(card.Composite, strategy.RiskNeutral)

		row := DailyResult{
			Date:      bars[ii].Date,
			Close:     bars[ii].Close,
			ChangePct: change,
			VIX:       e.Series.VIX[ii],
			Score:     card.Composite,
			Signal:    card.Signal,
			Regime:    card.Regime,
			RiskyPct:  alloc.RiskyPct,
		}
		if obs.Technicals != nil {
			row.MA20 = obs.Technicals.MA20
			row.DaysAbove = obs.Technicals.DaysAboveMA20
			row.DaysBelow = obs.Technicals.DaysBelowMA20
		}

		switch e.Mode {
		case ModeShares:
			price := bars[ii].Close
			total := cash + float64(shares)*price
			targetShares := int64(total * alloc.RiskyPct / 100 / price)

			if targetShares > shares {
				delta := targetShares - shares
				cost := float64(delta) * price
				if cost <= cash {
					shares += delta
					cash -= cost
					trades = append(trades, Trade{
						Date: bars[ii].Date, Action: strategy.SignalBuy,
						Shares: delta, Price: price, Value: cost,
					})
				}
			} else if targetShares < shares {
				delta := shares - targetShares
				proceeds := float64(delta) * price
				shares -= delta
				cash += proceeds
				trades = append(trades, Trade{
					Date: bars[ii].Date, Action: strategy.SignalSell,
					Shares: delta, Price: price, Value: proceeds,
				})
			}

			nav := cash + float64(shares)*price
			row.NAV = nav
			row.PnLPct = changePct(prevNAV, nav)
			cumulative = (nav/e.InitialCapital - 1) * 100
			prevNAV = nav
		default:
			row.PnLPct = change * prevAlloc / 100
			cumulative += row.PnLPct
		}
		row.CumulativePnL = cumulative

		if card.Signal == strategy.SignalBuy || card.Signal == strategy.SignalSell {
			predicted++
			if (card.Signal == strategy.SignalBuy && change > 0) ||
				(card.Signal == strategy.SignalSell && change < 0) {
				correct++
			}
		}

		daily = append(daily, row)
		prevAlloc = alloc.RiskyPct
	}

	result := &Result{
		Strategy:   strat.GetInfo().Shortcode,
		Parameters: strat.Parameters(),
		Daily:      daily,
	}
	if e.Mode == ModeShares {
		result.Trades = trades
		result.FinalNAV = prevNAV
	}

	benchmark := changePct(bars[0].Close, bars[len(bars)-1].Close)
	result.Metrics = CalculateMetrics(daily, benchmark, correct, predicted)

	return result, nil
}

// observationAt builds the strategy input as of bar idx. The primary
// instrument's own change stands in for the megacap basket, matching how
// historical runs have always proxied breadth.
func (e *Engine) observationAt(idx int) (*strategy.Observation, error) {
	bars := e.Series.Bars

	snap, err := indicators.At(bars, idx)
	if err != nil {
		return nil, err
	}

	quote, err := data.QuoteFromBars("", bars[:idx+1])
	if err != nil {
		return nil, err
	}

	macro := data.DefaultMacroSnapshot()
	macro.VIX = e.Series.VIX[idx]
	macro.US10Y = e.Series.US10Y[idx]
	macro.US10YChange = e.Series.US10YChange[idx]

	return &strategy.Observation{
		Date:          bars[idx].Date,
		Quote:         quote,
		Technicals:    snap,
		Macro:         macro,
		Mag7ChangePct: quote.ChangePct,
	}, nil
}

func changePct(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
