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

// Trend following policy built around the 20 day moving average. Position
// relative to the average, the length of the current streak on one side of
// it, and a volatility filter are blended; a hard volatility override can
// force the book towards cash regardless of what the ladders said.
package trend

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/strategies/strategy"
)

const Shortcode = "trend"

const (
	FactorPosition  = "ma20_position"
	FactorTrend     = "ma20_trend"
	FactorVIXFilter = "vix_filter"
)

var ErrNilObservation = errors.New("nil observation")

// Params are the tunable knobs of the trend policy
type Params struct {
	DaysThreshold  int     `json:"days_threshold"`
	VIXLimit       float64 `json:"vix_limit"`
	PositionWeight float64 `json:"position_weight"`
	TrendWeight    float64 `json:"trend_weight"`
	VIXWeight      float64 `json:"vix_weight"`
}

// DefaultParams returns the production parameter set
func DefaultParams() Params {
	return Params{
		DaysThreshold:  2,
		VIXLimit:       35,
		PositionWeight: 0.50,
		TrendWeight:    0.30,
		VIXWeight:      0.20,
	}
}

// WeightSum adds the three factor weights
func (p Params) WeightSum() float64 {
	return p.PositionWeight + p.TrendWeight + p.VIXWeight
}

type TrendFollower struct {
	params Params
}

// New constructs the strategy from raw parameter json, falling back to
// defaults for missing keys
func New(args map[string]json.RawMessage) (strategy.Strategy, error) {
	params := DefaultParams()
	if raw, ok := args["params"]; ok {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, err
		}
	}
	return &TrendFollower{params: params}, nil
}

// NewWithParams constructs the strategy directly, used by the optimizer
func NewWithParams(params Params) *TrendFollower {
	return &TrendFollower{params: params}
}

func (t *TrendFollower) GetInfo() strategy.StrategyInfo {
	return strategy.StrategyInfo{
		Name:        "MA20 Trend Follower",
		Shortcode:   Shortcode,
		Description: "Follows the 20 day moving average with a streak based entry signal and a volatility risk-off override",
		Version:     "5.0",
		Benchmark:   "QQQ.US",
		Arguments: map[string]strategy.Argument{
			"params": {
				Name:        "params",
				Description: "Trend policy parameters",
				Typecode:    "object",
				Default:     `{"days_threshold": 2, "vix_limit": 35, "position_weight": 0.5, "trend_weight": 0.3, "vix_weight": 0.2}`,
			},
		},
		Factory: New,
	}
}

func (t *TrendFollower) Parameters() map[string]json.RawMessage {
	raw, _ := json.Marshal(t.params)
	return map[string]json.RawMessage{"params": raw}
}

func (t *TrendFollower) Params() Params {
	return t.params
}

// Score runs the three factor ladders, blends them, then applies the
// volatility override. The override fires after weighting so the capped
// composite still reflects a genuinely weighted reading below the cap.
func (t *TrendFollower) Score(obs *strategy.Observation) (*strategy.ScoreCard, error) {
	if obs == nil || obs.Technicals == nil {
		return nil, ErrNilObservation
	}

	tech := obs.Technicals

	position := scorePosition(tech.MA20DiffPct)
	trendScore, signal := scoreTrend(tech.DaysAboveMA20, tech.DaysBelowMA20, t.params.DaysThreshold)
	vixScore := scoreVIXFilter(obs.Macro.VIX)

	composite := float64(position.Score)*t.params.PositionWeight +
		float64(trendScore.Score)*t.params.TrendWeight +
		float64(vixScore.Score)*t.params.VIXWeight
	composite = strategy.Round1(composite)

	if obs.Macro.VIX > t.params.VIXLimit {
		signal = strategy.SignalRiskOff
		if composite > 4 {
			composite = 4
		}
	}

	return &strategy.ScoreCard{
		Composite: composite,
		Regime:    strategy.RegimeFor(composite),
		Signal:    signal,
		Factors: map[string]strategy.FactorScore{
			FactorPosition:  position,
			FactorTrend:     trendScore,
			FactorVIXFilter: vixScore,
		},
	}, nil
}

// Allocate maps the bias-adjusted composite onto the trend step table,
// which ranges all the way from fully in cash to 95 percent invested
func (t *TrendFollower) Allocate(composite float64, risk strategy.RiskPreference) strategy.Allocation {
	adjusted := strategy.AdjustScore(composite, risk)

	var riskyPct float64
	switch {
	case adjusted <= 2:
		riskyPct = 0
	case adjusted <= 3:
		riskyPct = 10
	case adjusted <= 4:
		riskyPct = 25
	case adjusted <= 5:
		riskyPct = 40
	case adjusted <= 6:
		riskyPct = 55
	case adjusted <= 7:
		riskyPct = 70
	case adjusted <= 8:
		riskyPct = 85
	default:
		riskyPct = 95
	}

	return strategy.Allocation{
		AdjustedScore: adjusted,
		RiskyPct:      riskyPct,
		CashPct:       100 - riskyPct,
	}
}

func scorePosition(diffPct float64) strategy.FactorScore {
	switch {
	case diffPct > 5:
		return strategy.FactorScore{Score: 9, Direction: "strong_above"}
	case diffPct > 3:
		return strategy.FactorScore{Score: 8, Direction: "above"}
	case diffPct > 1:
		return strategy.FactorScore{Score: 7, Direction: "above"}
	case diffPct > 0:
		return strategy.FactorScore{Score: 6, Direction: "slight_above"}
	case diffPct > -1:
		return strategy.FactorScore{Score: 5, Direction: "slight_below"}
	case diffPct > -3:
		return strategy.FactorScore{Score: 4, Direction: "below"}
	case diffPct > -5:
		return strategy.FactorScore{Score: 3, Direction: "below"}
	default:
		return strategy.FactorScore{Score: 2, Direction: "strong_below"}
	}
}

// scoreTrend turns the current streak into a score and a trading signal.
// A streak one day past the threshold is a strong confirmation; a one day
// streak on either side only warrants watching.
func scoreTrend(daysAbove, daysBelow, threshold int) (strategy.FactorScore, strategy.Signal) {
	switch {
	case daysAbove >= threshold+1:
		return strategy.FactorScore{Score: 9, Direction: "bullish"}, strategy.SignalBuy
	case daysAbove >= threshold:
		return strategy.FactorScore{Score: 8, Direction: "bullish"}, strategy.SignalBuy
	case daysAbove == 1:
		return strategy.FactorScore{Score: 6, Direction: "neutral"}, strategy.SignalWatch
	case daysBelow == 1:
		return strategy.FactorScore{Score: 5, Direction: "neutral"}, strategy.SignalWatch
	case daysBelow >= threshold:
		return strategy.FactorScore{Score: 3, Direction: "bearish"}, strategy.SignalSell
	default:
		return strategy.FactorScore{Score: 5, Direction: "neutral"}, strategy.SignalHold
	}
}

func scoreVIXFilter(vix float64) strategy.FactorScore {
	switch {
	case vix < 15:
		return strategy.FactorScore{Score: 8, Direction: "low_risk"}
	case vix < 20:
		return strategy.FactorScore{Score: 7, Direction: "normal"}
	case vix < 25:
		return strategy.FactorScore{Score: 5, Direction: "elevated"}
	case vix < 30:
		return strategy.FactorScore{Score: 3, Direction: "high"}
	default:
		return strategy.FactorScore{Score: 2, Direction: "extreme"}
	}
}
