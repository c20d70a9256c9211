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

// Multi-factor momentum policy. Five market factors are each scored on a
// fixed integer ladder and blended with a configurable weight vector into
// a single composite reading between 1 and 9.
package momentum

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/strategies/strategy"
)

const Shortcode = "momentum"

// factor names as emitted in score cards and persisted decisions
const (
	FactorPriceMomentum = "price_momentum"
	FactorVolume        = "volume"
	FactorVIX           = "vix"
	FactorBond          = "bond"
	FactorMag7          = "mag7"
)

var ErrNilObservation = errors.New("nil observation")

// Weights is the factor weight vector; the defaults sum to 1.0 but the
// struct does not enforce it
type Weights struct {
	PriceMomentum float64 `json:"price_momentum"`
	Volume        float64 `json:"volume"`
	VIX           float64 `json:"vix"`
	Bond          float64 `json:"bond"`
	Mag7          float64 `json:"mag7"`
}

// DefaultWeights returns the production weight vector
func DefaultWeights() Weights {
	return Weights{
		PriceMomentum: 0.30,
		Volume:        0.20,
		VIX:           0.20,
		Bond:          0.15,
		Mag7:          0.15,
	}
}

// Sum adds the weight components
func (w Weights) Sum() float64 {
	return w.PriceMomentum + w.Volume + w.VIX + w.Bond + w.Mag7
}

type MultiFactorMomentum struct {
	weights Weights
}

// New constructs the strategy from raw parameter json. Missing keys fall
// back to defaults; present keys must parse.
func New(args map[string]json.RawMessage) (strategy.Strategy, error) {
	weights := DefaultWeights()
	if raw, ok := args["weights"]; ok {
		if err := json.Unmarshal(raw, &weights); err != nil {
			return nil, err
		}
	}
	return &MultiFactorMomentum{weights: weights}, nil
}

// NewWithWeights constructs the strategy directly, used by the optimizer
func NewWithWeights(weights Weights) *MultiFactorMomentum {
	return &MultiFactorMomentum{weights: weights}
}

func (m *MultiFactorMomentum) GetInfo() strategy.StrategyInfo {
	return strategy.StrategyInfo{
		Name:        "Multi-Factor Momentum",
		Shortcode:   Shortcode,
		Description: "Blends price momentum, volume, volatility, bond yield and megacap breadth into one equity allocation score",
		Version:     "2.0",
		Benchmark:   "QQQ.US",
		Arguments: map[string]strategy.Argument{
			"weights": {
				Name:        "weights",
				Description: "Factor weight vector",
				Typecode:    "object",
				Default:     `{"price_momentum": 0.3, "volume": 0.2, "vix": 0.2, "bond": 0.15, "mag7": 0.15}`,
			},
		},
		Factory: New,
	}
}

func (m *MultiFactorMomentum) Parameters() map[string]json.RawMessage {
	raw, _ := json.Marshal(m.weights)
	return map[string]json.RawMessage{"weights": raw}
}

func (m *MultiFactorMomentum) Weights() Weights {
	return m.weights
}

// Score runs the five factor ladders and blends them with the weight
// vector. The result is rounded to one decimal place.
func (m *MultiFactorMomentum) Score(obs *strategy.Observation) (*strategy.ScoreCard, error) {
	if obs == nil {
		return nil, ErrNilObservation
	}

	volumeRatio := 1.0
	if obs.Technicals != nil {
		volumeRatio = obs.Technicals.VolumeRatio
	}

	factors := map[string]strategy.FactorScore{
		FactorPriceMomentum: scorePriceMomentum(obs.Quote.ChangePct),
		FactorVolume:        scoreVolume(volumeRatio, obs.Quote.ChangePct),
		FactorVIX:           scoreVIX(obs.Macro.VIX),
		FactorBond:          scoreBond(obs.Macro.US10YChange),
		FactorMag7:          scoreMag7(obs.Mag7ChangePct),
	}

	composite := float64(factors[FactorPriceMomentum].Score)*m.weights.PriceMomentum +
		float64(factors[FactorVolume].Score)*m.weights.Volume +
		float64(factors[FactorVIX].Score)*m.weights.VIX +
		float64(factors[FactorBond].Score)*m.weights.Bond +
		float64(factors[FactorMag7].Score)*m.weights.Mag7
	composite = strategy.Round1(composite)

	return &strategy.ScoreCard{
		Composite: composite,
		Regime:    strategy.RegimeFor(composite),
		Signal:    signalFor(composite),
		Factors:   factors,
	}, nil
}

// Allocate maps the bias-adjusted composite score onto the momentum step
// table. The table never goes fully to cash; even the weakest reading
// keeps a 10 percent foothold.
func (m *MultiFactorMomentum) Allocate(composite float64, risk strategy.RiskPreference) strategy.Allocation {
	adjusted := strategy.AdjustScore(composite, risk)

	var riskyPct float64
	switch {
	case adjusted <= 2:
		riskyPct = 10
	case adjusted <= 3:
		riskyPct = 20
	case adjusted <= 4:
		riskyPct = 35
	case adjusted <= 5:
		riskyPct = 50
	case adjusted <= 6:
		riskyPct = 60
	case adjusted <= 7:
		riskyPct = 75
	case adjusted < 9:
		riskyPct = 85
	default:
		riskyPct = 90
	}

	return strategy.Allocation{
		AdjustedScore: adjusted,
		RiskyPct:      riskyPct,
		CashPct:       100 - riskyPct,
	}
}

func signalFor(composite float64) strategy.Signal {
	switch {
	case composite >= 6.5:
		return strategy.SignalBuy
	case composite <= 3.5:
		return strategy.SignalSell
	default:
		return strategy.SignalHold
	}
}

func scorePriceMomentum(changePct float64) strategy.FactorScore {
	switch {
	case changePct > 2.0:
		return strategy.FactorScore{Score: 9, Direction: "strong_up"}
	case changePct > 1.0:
		return strategy.FactorScore{Score: 8, Direction: "up"}
	case changePct > 0.5:
		return strategy.FactorScore{Score: 7, Direction: "up"}
	case changePct > 0:
		return strategy.FactorScore{Score: 6, Direction: "mild_up"}
	case changePct > -0.5:
		return strategy.FactorScore{Score: 5, Direction: "flat"}
	case changePct > -1.0:
		return strategy.FactorScore{Score: 4, Direction: "mild_down"}
	case changePct > -2.0:
		return strategy.FactorScore{Score: 3, Direction: "down"}
	default:
		return strategy.FactorScore{Score: 2, Direction: "strong_down"}
	}
}

// scoreVolume reacts to volume surges differently depending on whether the
// day closed up or down: heavy volume confirms an up move and condemns a
// down move
func scoreVolume(ratio, changePct float64) strategy.FactorScore {
	if changePct > 0 {
		switch {
		case ratio > 1.5:
			return strategy.FactorScore{Score: 9, Direction: "surge_up"}
		case ratio > 1.2:
			return strategy.FactorScore{Score: 8, Direction: "heavy_up"}
		case ratio < 0.7:
			return strategy.FactorScore{Score: 4, Direction: "thin_up"}
		}
		return strategy.FactorScore{Score: 5, Direction: "normal"}
	}

	switch {
	case ratio > 1.5:
		return strategy.FactorScore{Score: 2, Direction: "surge_down"}
	case ratio > 1.2:
		return strategy.FactorScore{Score: 3, Direction: "heavy_down"}
	case ratio < 0.7:
		return strategy.FactorScore{Score: 6, Direction: "thin_down"}
	}
	return strategy.FactorScore{Score: 5, Direction: "normal"}
}

func scoreVIX(vix float64) strategy.FactorScore {
	switch {
	case vix < 12:
		return strategy.FactorScore{Score: 9, Direction: "calm"}
	case vix < 15:
		return strategy.FactorScore{Score: 8, Direction: "calm"}
	case vix < 18:
		return strategy.FactorScore{Score: 7, Direction: "normal"}
	case vix < 22:
		return strategy.FactorScore{Score: 5, Direction: "elevated"}
	case vix < 28:
		return strategy.FactorScore{Score: 4, Direction: "stressed"}
	case vix < 35:
		return strategy.FactorScore{Score: 3, Direction: "fear"}
	default:
		return strategy.FactorScore{Score: 1, Direction: "panic"}
	}
}

// scoreBond inverts yield moves: falling yields are good for the long
// duration growth basket
func scoreBond(yieldChange float64) strategy.FactorScore {
	switch {
	case yieldChange > 0.08:
		return strategy.FactorScore{Score: 2, Direction: "spike_up"}
	case yieldChange > 0.05:
		return strategy.FactorScore{Score: 3, Direction: "up"}
	case yieldChange > 0.02:
		return strategy.FactorScore{Score: 4, Direction: "mild_up"}
	case yieldChange < -0.08:
		return strategy.FactorScore{Score: 8, Direction: "spike_down"}
	case yieldChange < -0.05:
		return strategy.FactorScore{Score: 7, Direction: "down"}
	case yieldChange < -0.02:
		return strategy.FactorScore{Score: 6, Direction: "mild_down"}
	default:
		return strategy.FactorScore{Score: 5, Direction: "flat"}
	}
}

func scoreMag7(avgChangePct float64) strategy.FactorScore {
	switch {
	case avgChangePct > 1.5:
		return strategy.FactorScore{Score: 8, Direction: "strong_up"}
	case avgChangePct > 0.5:
		return strategy.FactorScore{Score: 7, Direction: "up"}
	case avgChangePct > 0:
		return strategy.FactorScore{Score: 6, Direction: "mild_up"}
	case avgChangePct > -0.5:
		return strategy.FactorScore{Score: 5, Direction: "flat"}
	case avgChangePct > -1.5:
		return strategy.FactorScore{Score: 4, Direction: "down"}
	default:
		return strategy.FactorScore{Score: 3, Direction: "strong_down"}
	}
}
