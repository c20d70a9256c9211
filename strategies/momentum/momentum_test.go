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

package momentum_test

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/indicators"
	"github.com/penny-vault/advisor/strategies/momentum"
	"github.com/penny-vault/advisor/strategies/strategy"
)

func observation(changePct, volumeRatio, vix, yieldChange, mag7 float64) *strategy.Observation {
	return &strategy.Observation{
		Quote: data.Quote{Ticker: "QQQ.US", Close: 500, ChangePct: changePct},
		Technicals: &indicators.Snapshot{
			VolumeRatio: volumeRatio,
		},
		Macro: data.MacroSnapshot{
			VIX:         vix,
			US10Y:       4.5,
			US10YChange: yieldChange,
		},
		Mag7ChangePct: mag7,
	}
}

var _ = Describe("MultiFactorMomentum", func() {
	var strat *momentum.MultiFactorMomentum

	BeforeEach(func() {
		strat = momentum.NewWithWeights(momentum.DefaultWeights())
	})

	Describe("Score", func() {
		It("returns an error for a nil observation", func() {
			_, err := strat.Score(nil)
			Expect(err).To(MatchError(momentum.ErrNilObservation))
		})

		It("scores a strongly bullish day at 8.7 in the offense regime", func() {
			card, err := strat.Score(observation(2.5, 1.6, 11, -0.1, 2.0))
			Expect(err).To(BeNil())

			Expect(card.Factors[momentum.FactorPriceMomentum].Score).To(Equal(9))
			Expect(card.Factors[momentum.FactorVolume].Score).To(Equal(9))
			Expect(card.Factors[momentum.FactorVIX].Score).To(Equal(9))
			Expect(card.Factors[momentum.FactorBond].Score).To(Equal(8))
			Expect(card.Factors[momentum.FactorMag7].Score).To(Equal(8))

			Expect(card.Composite).To(Equal(8.7))
			Expect(card.Regime).To(Equal(strategy.RegimeOffense))
			Expect(card.Signal).To(Equal(strategy.SignalBuy))
		})

		It("scores a panic day deep in the defense regime", func() {
			card, err := strat.Score(observation(-3.0, 2.0, 42, 0.1, -1.0))
			Expect(err).To(BeNil())

			Expect(card.Factors[momentum.FactorPriceMomentum].Score).To(Equal(2))
			Expect(card.Factors[momentum.FactorVolume].Score).To(Equal(2))
			Expect(card.Factors[momentum.FactorVIX].Score).To(Equal(1))
			Expect(card.Factors[momentum.FactorBond].Score).To(Equal(2))
			Expect(card.Factors[momentum.FactorMag7].Score).To(Equal(4))

			// 2*.3 + 2*.2 + 1*.2 + 2*.15 + 4*.15
			Expect(card.Composite).To(Equal(2.1))
			Expect(card.Regime).To(Equal(strategy.RegimeDefense))
			Expect(card.Signal).To(Equal(strategy.SignalSell))
		})

		It("holds in the middle of the range", func() {
			card, err := strat.Score(observation(0.2, 1.0, 19, 0.0, 0.6))
			Expect(err).To(BeNil())
			Expect(card.Signal).To(Equal(strategy.SignalHold))
			Expect(card.Regime).To(Equal(strategy.RegimeNeutral))
		})

		It("defaults the volume ratio when technicals are missing", func() {
			obs := observation(1.2, 0, 16, 0, 0.3)
			obs.Technicals = nil
			card, err := strat.Score(obs)
			Expect(err).To(BeNil())
			Expect(card.Factors[momentum.FactorVolume].Score).To(Equal(5))
		})
	})

	Describe("Allocate", func() {
		DescribeTable("maps the composite onto the step table",
			func(composite, expected float64) {
				alloc := strat.Allocate(composite, strategy.RiskNeutral)
				Expect(alloc.RiskyPct).To(Equal(expected))
				Expect(alloc.CashPct).To(Equal(100 - expected))
			},
			Entry("floor", 1.0, 10.0),
			Entry("upper edge of floor", 2.0, 10.0),
			Entry("weak", 2.8, 20.0),
			Entry("cautious", 3.9, 35.0),
			Entry("half", 5.0, 50.0),
			Entry("leaning in", 5.5, 60.0),
			Entry("constructive", 7.0, 75.0),
			Entry("strong", 8.7, 85.0),
			Entry("maximum", 9.0, 90.0),
		)

		It("shifts with the risk preference", func() {
			Expect(strat.Allocate(5.0, strategy.RiskConservative).RiskyPct).To(Equal(35.0))
			Expect(strat.Allocate(5.0, strategy.RiskAggressive).RiskyPct).To(Equal(60.0))
		})

		It("clamps the adjusted score at the extremes", func() {
			Expect(strat.Allocate(0.5, strategy.RiskConservative).AdjustedScore).To(Equal(0.0))
			Expect(strat.Allocate(9.8, strategy.RiskAggressive).AdjustedScore).To(Equal(10.0))
		})
	})

	Describe("New", func() {
		It("parses a weights argument", func() {
			raw := json.RawMessage(`{"price_momentum": 0.4, "volume": 0.15, "vix": 0.15, "bond": 0.15, "mag7": 0.15}`)
			built, err := momentum.New(map[string]json.RawMessage{"weights": raw})
			Expect(err).To(BeNil())
			mf := built.(*momentum.MultiFactorMomentum)
			Expect(mf.Weights().PriceMomentum).To(Equal(0.4))
			Expect(mf.Weights().Sum()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("falls back to defaults when no arguments are given", func() {
			built, err := momentum.New(map[string]json.RawMessage{})
			Expect(err).To(BeNil())
			Expect(built.(*momentum.MultiFactorMomentum).Weights()).To(Equal(momentum.DefaultWeights()))
		})

		It("rejects malformed weights", func() {
			_, err := momentum.New(map[string]json.RawMessage{"weights": json.RawMessage(`{`)})
			Expect(err).ToNot(BeNil())
		})

		It("round trips through Parameters", func() {
			params := strat.Parameters()
			rebuilt, err := momentum.New(params)
			Expect(err).To(BeNil())
			Expect(rebuilt.(*momentum.MultiFactorMomentum).Weights()).To(Equal(strat.Weights()))
		})
	})
})
