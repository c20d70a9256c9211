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

// The pipeline assembles one day's trading decision: fetch market data,
// compute technicals, score with the selected strategy, map to an
// allocation and attach risk flags. Everything downstream (persistence,
// notification, review) consumes the Decision record it produces.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/indicators"
	"github.com/penny-vault/advisor/observability/opentelemetry"
	"github.com/penny-vault/advisor/strategies/strategy"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const (
	// risk alert thresholds
	VIXAlertLevel = 40.0
	DropAlertPct  = 4.0

	// stop loss sits just under the close
	StopLossFactor = 0.98

	// history window fed to the indicator calculator
	lookbackDays = 180
)

// RiskFlags are the booleans surfaced as alerts alongside a decision
type RiskFlags struct {
	VIXAboveThreshold  bool    `json:"volatility_index_above_threshold"`
	SingleDayDropAlert bool    `json:"single_day_drop_exceeds_threshold"`
	StopLossPrice      float64 `json:"stop_loss_price"`
}

// Triggered reports whether any alert condition fired
func (r RiskFlags) Triggered() bool {
	return r.VIXAboveThreshold || r.SingleDayDropAlert
}

// MarketSnapshot is the observable state the decision was made from
type MarketSnapshot struct {
	Close       float64 `json:"close"`
	ChangePct   float64 `json:"change_pct"`
	VolumeRatio float64 `json:"volume_ratio"`
	MA20        float64 `json:"ma20"`
	MA20DiffPct float64 `json:"ma20_diff_pct"`
	RSI         float64 `json:"rsi"`
	VIX         float64 `json:"vix"`
	US10YChange float64 `json:"us10y_change"`
	Mag7Change  float64 `json:"mag7_change_pct"`
}

// Decision is the record emitted per run; persistence and notification
// layers pattern match on these field names so the shape must stay stable
type Decision struct {
	Date           time.Time                       `json:"date"`
	Ticker         string                          `json:"ticker"`
	Strategy       string                          `json:"strategy"`
	MarketSnapshot MarketSnapshot                  `json:"market_snapshot"`
	FactorScores   map[string]strategy.FactorScore `json:"factor_scores"`
	CompositeScore float64                         `json:"composite_score"`
	Regime         strategy.Regime                 `json:"regime"`
	Signal         strategy.Signal                 `json:"signal"`
	Allocation     strategy.Allocation             `json:"allocation"`
	RiskFlags      RiskFlags                       `json:"risk_flags"`
	NextDayBias    string                          `json:"next_day_bias"`
	Confidence     string                          `json:"confidence"`
}

// Pipeline wires a data manager to a strategy for daily scoring
type Pipeline struct {
	manager  *data.Manager
	strat    strategy.Strategy
	ticker   string
	riskPref strategy.RiskPreference
}

func New(manager *data.Manager, strat strategy.Strategy, ticker string, riskPref strategy.RiskPreference) *Pipeline {
	return &Pipeline{
		manager:  manager,
		strat:    strat,
		ticker:   ticker,
		riskPref: riskPref,
	}
}

// Run produces the decision for asOf. A missing quote for the primary
// instrument is the one fatal precondition; macro outages degrade to
// fallback readings.
func (p *Pipeline) Run(ctx context.Context, asOf time.Time) (*Decision, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pipeline.Run")
	defer span.End()

	bars, err := p.manager.FetchHistory(ctx, p.ticker, asOf.AddDate(0, 0, -lookbackDays), asOf)
	if err != nil {
		return nil, fmt.Errorf("fetch %s history: %w", p.ticker, err)
	}

	quote, err := data.QuoteFromBars(p.ticker, bars)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", p.ticker, err)
	}

	tech, err := indicators.Compute(bars)
	if err != nil {
		return nil, err
	}

	macro := p.manager.FetchMacro(ctx, asOf)
	mag7 := p.manager.FetchMag7Change(ctx, asOf)

	obs := &strategy.Observation{
		Date:          asOf,
		Quote:         quote,
		Technicals:    tech,
		Macro:         macro,
		Mag7ChangePct: mag7,
	}

	decision, err := p.Decide(obs)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("Strategy", p.strat.GetInfo().Shortcode).
		Float64("Composite", decision.CompositeScore).
		Str("Regime", string(decision.Regime)).
		Float64("RiskyPct", decision.Allocation.RiskyPct).
		Msg("daily decision computed")

	return decision, nil
}

// Decide scores an already assembled observation; pure apart from the
// strategy call, which is itself pure
func (p *Pipeline) Decide(obs *strategy.Observation) (*Decision, error) {
	card, err := p.strat.Score(obs)
	if err != nil {
		return nil, err
	}

	alloc := p.strat.Allocate(card.Composite, p.riskPref)

	snap := MarketSnapshot{
		Close:       obs.Quote.Close,
		ChangePct:   obs.Quote.ChangePct,
		VIX:         obs.Macro.VIX,
		US10YChange: obs.Macro.US10YChange,
		Mag7Change:  obs.Mag7ChangePct,
	}
	if obs.Technicals != nil {
		snap.VolumeRatio = obs.Technicals.VolumeRatio
		snap.MA20 = obs.Technicals.MA20
		snap.MA20DiffPct = obs.Technicals.MA20DiffPct
		snap.RSI = obs.Technicals.RSI
	}

	return &Decision{
		Date:           obs.Date,
		Ticker:         obs.Quote.Ticker,
		Strategy:       p.strat.GetInfo().Shortcode,
		MarketSnapshot: snap,
		FactorScores:   card.Factors,
		CompositeScore: card.Composite,
		Regime:         card.Regime,
		Signal:         card.Signal,
		Allocation:     alloc,
		RiskFlags: RiskFlags{
			VIXAboveThreshold:  obs.Macro.VIX > VIXAlertLevel,
			SingleDayDropAlert: obs.Quote.ChangePct < -DropAlertPct,
			StopLossPrice:      round2(obs.Quote.Close * StopLossFactor),
		},
		NextDayBias: biasFor(card.Composite),
		Confidence:  confidenceFor(card.Composite),
	}, nil
}

func biasFor(composite float64) string {
	switch {
	case composite >= 6:
		return "bullish"
	case composite <= 4:
		return "bearish"
	default:
		return "neutral"
	}
}

func confidenceFor(composite float64) string {
	if composite > 7 || composite < 3 {
		return "high"
	}
	return "medium"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
