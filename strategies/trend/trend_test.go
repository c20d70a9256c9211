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

package trend_test

import (
	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/indicators"
	"github.com/penny-vault/advisor/strategies/strategy"
	"github.com/penny-vault/advisor/strategies/trend"
)

func observation(ma20DiffPct float64, daysAbove, daysBelow int, vix float64) *strategy.Observation {
	return &strategy.Observation{
		Quote: data.Quote{Ticker: "QQQ.US", Close: 500},
		Technicals: &indicators.Snapshot{
			MA20DiffPct:   ma20DiffPct,
			DaysAboveMA20: daysAbove,
			DaysBelowMA20: daysBelow,
		},
		Macro: data.MacroSnapshot{VIX: vix},
	}
}

var _ = Describe("TrendFollower", func() {
	var strat *trend.TrendFollower

	BeforeEach(func() {
		strat = trend.NewWithParams(trend.DefaultParams())
	})

	Describe("Score", func() {
		It("requires technical readings", func() {
			_, err := strat.Score(nil)
			Expect(err).To(MatchError(trend.ErrNilObservation))

			obs := observation(0, 0, 0, 20)
			obs.Technicals = nil
			_, err = strat.Score(obs)
			Expect(err).To(MatchError(trend.ErrNilObservation))
		})

		It("scores a confirmed uptrend as a buy", func() {
			card, err := strat.Score(observation(4, 3, 0, 14))
			Expect(err).To(BeNil())

			Expect(card.Factors[trend.FactorPosition].Score).To(Equal(8))
			Expect(card.Factors[trend.FactorTrend].Score).To(Equal(9))
			Expect(card.Factors[trend.FactorVIXFilter].Score).To(Equal(8))

			// 8*.5 + 9*.3 + 8*.2
			Expect(card.Composite).To(Equal(8.3))
			Expect(card.Signal).To(Equal(strategy.SignalBuy))
			Expect(card.Regime).To(Equal(strategy.RegimeOffense))
		})

		It("scores a confirmed downtrend as a sell", func() {
			card, err := strat.Score(observation(-4, 0, 3, 24))
			Expect(err).To(BeNil())

			Expect(card.Factors[trend.FactorPosition].Score).To(Equal(3))
			Expect(card.Factors[trend.FactorTrend].Score).To(Equal(3))
			Expect(card.Factors[trend.FactorVIXFilter].Score).To(Equal(5))

			// 3*.5 + 3*.3 + 5*.2
			Expect(card.Composite).To(Equal(3.4))
			Expect(card.Signal).To(Equal(strategy.SignalSell))
			Expect(card.Regime).To(Equal(strategy.RegimeDefense))
		})

		It("watches the first day on either side of the average", func() {
			card, err := strat.Score(observation(0.5, 1, 0, 16))
			Expect(err).To(BeNil())
			Expect(card.Signal).To(Equal(strategy.SignalWatch))

			card, err = strat.Score(observation(-0.5, 0, 1, 16))
			Expect(err).To(BeNil())
			Expect(card.Signal).To(Equal(strategy.SignalWatch))
		})

		It("holds when no streak exists", func() {
			card, err := strat.Score(observation(0.5, 0, 0, 16))
			Expect(err).To(BeNil())
			Expect(card.Signal).To(Equal(strategy.SignalHold))
			Expect(card.Factors[trend.FactorTrend].Score).To(Equal(5))
		})

		Context("when volatility breaches the limit", func() {
			It("forces risk off and caps a strong composite at four", func() {
				card, err := strat.Score(observation(2, 3, 0, 45))
				Expect(err).To(BeNil())
				Expect(card.Signal).To(Equal(strategy.SignalRiskOff))
				Expect(card.Composite).To(Equal(4.0))
			})

			It("leaves an already weak composite untouched", func() {
				card, err := strat.Score(observation(-6, 0, 3, 45))
				Expect(err).To(BeNil())
				Expect(card.Signal).To(Equal(strategy.SignalRiskOff))
				Expect(card.Composite).To(Equal(2.3))
			})
		})
	})

	Describe("Allocate", func() {
		DescribeTable("maps the composite onto the step table",
			func(composite, expected float64) {
				alloc := strat.Allocate(composite, strategy.RiskNeutral)
				Expect(alloc.RiskyPct).To(Equal(expected))
				Expect(alloc.CashPct).To(Equal(100 - expected))
			},
			Entry("all cash", 1.5, 0.0),
			Entry("edge of cash", 2.0, 0.0),
			Entry("toe in", 2.9, 10.0),
			Entry("cautious", 4.0, 25.0),
			Entry("balanced", 5.0, 40.0),
			Entry("leaning in", 6.0, 55.0),
			Entry("invested", 7.0, 70.0),
			Entry("strong", 8.0, 85.0),
			Entry("maximum", 8.8, 95.0),
		)
	})

	Describe("New", func() {
		It("parses a params argument", func() {
			raw := json.RawMessage(`{"days_threshold": 3, "vix_limit": 30, "position_weight": 0.4, "trend_weight": 0.35, "vix_weight": 0.25}`)
			built, err := trend.New(map[string]json.RawMessage{"params": raw})
			Expect(err).To(BeNil())
			tf := built.(*trend.TrendFollower)
			Expect(tf.Params().DaysThreshold).To(Equal(3))
			Expect(tf.Params().VIXLimit).To(Equal(30.0))
			Expect(tf.Params().WeightSum()).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("falls back to defaults when no arguments are given", func() {
			built, err := trend.New(map[string]json.RawMessage{})
			Expect(err).To(BeNil())
			Expect(built.(*trend.TrendFollower).Params()).To(Equal(trend.DefaultParams()))
		})

		It("round trips through Parameters", func() {
			rebuilt, err := trend.New(strat.Parameters())
			Expect(err).To(BeNil())
			Expect(rebuilt.(*trend.TrendFollower).Params()).To(Equal(strat.Params()))
		})
	})
})
