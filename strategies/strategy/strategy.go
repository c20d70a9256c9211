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

package strategy

import (
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/indicators"
)

// Regime classifies the composite score into a market stance
type Regime string

const (
	RegimeDefense Regime = "defense"
	RegimeNeutral Regime = "neutral"
	RegimeOffense Regime = "offense"
)

// Signal is the categorical trading signal a strategy may emit
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalHold    Signal = "HOLD"
	SignalWatch   Signal = "WATCH"
	SignalRiskOff Signal = "RISK_OFF"
)

// RiskPreference shifts the composite score before allocation lookup
type RiskPreference string

const (
	RiskConservative RiskPreference = "conservative"
	RiskNeutral      RiskPreference = "neutral"
	RiskAggressive   RiskPreference = "aggressive"
)

// Bias returns the score adjustment for the preference
func (r RiskPreference) Bias() float64 {
	switch r {
	case RiskConservative:
		return -1
	case RiskAggressive:
		return 1
	default:
		return 0
	}
}

// Observation bundles everything a strategy may look at on one day. It is
// assembled by calling code; strategies never perform I/O themselves.
type Observation struct {
	Date          time.Time
	Quote         data.Quote
	Technicals    *indicators.Snapshot
	Macro         data.MacroSnapshot
	Mag7ChangePct float64
}

// FactorScore is one factor's integer score and its directional label
type FactorScore struct {
	Score     int    `json:"score"`
	Direction string `json:"direction"`
}

// ScoreCard is the full output of a strategy's scoring pass
type ScoreCard struct {
	Composite float64                `json:"composite_score"`
	Regime    Regime                 `json:"regime"`
	Signal    Signal                 `json:"signal"`
	Factors   map[string]FactorScore `json:"factor_scores"`
}

// Allocation is a target split between the risky asset and cash
type Allocation struct {
	AdjustedScore float64 `json:"adjusted_score"`
	RiskyPct      float64 `json:"risky_pct"`
	CashPct       float64 `json:"cash_pct"`
}

// Strategy scores one day's observation and maps scores to a target
// allocation. Implementations are pure; both methods are safe to call
// concurrently.
type Strategy interface {
	GetInfo() StrategyInfo
	Score(obs *Observation) (*ScoreCard, error)
	Allocate(composite float64, risk RiskPreference) Allocation
	Parameters() map[string]json.RawMessage
}

// StrategyFactory constructs a strategy from raw parameter json
type StrategyFactory func(args map[string]json.RawMessage) (Strategy, error)

// Argument describes one tunable strategy parameter
type Argument struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Typecode    string   `json:"typecode"`
	Default     string   `json:"default"`
	Options     []string `json:"options"`
}

// StrategyInfo information about a strategy
type StrategyInfo struct {
	Name        string              `json:"name"`
	Shortcode   string              `json:"shortcode"`
	Description string              `json:"description"`
	Version     string              `json:"version"`
	Benchmark   string              `json:"benchmark"`
	Arguments   map[string]Argument `json:"arguments"`
	Factory     StrategyFactory     `json:"-"`
}

// RegimeFor applies the fixed composite score cut points
func RegimeFor(composite float64) Regime {
	switch {
	case composite <= 3.5:
		return RegimeDefense
	case composite >= 6.5:
		return RegimeOffense
	default:
		return RegimeNeutral
	}
}

// AdjustScore applies the risk preference bias and clamps to [0, 10]
func AdjustScore(composite float64, risk RiskPreference) float64 {
	adjusted := composite + risk.Bias()
	if adjusted < 0 {
		return 0
	}
	if adjusted > 10 {
		return 10
	}
	return adjusted
}

// Round1 rounds to one decimal place, the composite score precision
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
