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

package pipeline_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/pipeline"
	"github.com/penny-vault/advisor/strategies/strategy"
)

func decisionFor(day time.Time, bias string, riskyPct, changePct float64) *pipeline.Decision {
	return &pipeline.Decision{
		Date:        day,
		Ticker:      "QQQ.US",
		Strategy:    "momentum",
		NextDayBias: bias,
		Allocation:  strategy.Allocation{RiskyPct: riskyPct, CashPct: 100 - riskyPct},
		MarketSnapshot: pipeline.MarketSnapshot{
			Close:     400,
			ChangePct: changePct,
		},
	}
}

var _ = Describe("Validate", func() {
	day := time.Date(2022, 6, 2, 0, 0, 0, 0, time.UTC)
	prevDay := day.AddDate(0, 0, -1)

	It("credits a bullish call on any up day", func() {
		prev := decisionFor(prevDay, "bullish", 75, 0.8)
		result := pipeline.Validate(prev, data.Quote{Close: 402, ChangePct: 0.05}, day)
		Expect(result.Correct).To(BeTrue())
		Expect(result.Actual).To(Equal("neutral"))
	})

	It("faults a bullish call on a down day", func() {
		prev := decisionFor(prevDay, "bullish", 75, 0.8)
		result := pipeline.Validate(prev, data.Quote{Close: 395, ChangePct: -1.2}, day)
		Expect(result.Correct).To(BeFalse())
		Expect(result.Actual).To(Equal("bearish"))
	})

	It("credits a bearish call on any down day", func() {
		prev := decisionFor(prevDay, "bearish", 20, -0.8)
		result := pipeline.Validate(prev, data.Quote{Close: 399, ChangePct: -0.05}, day)
		Expect(result.Correct).To(BeTrue())
	})

	It("credits a neutral call when the move stays small", func() {
		prev := decisionFor(prevDay, "neutral", 50, 0.1)
		result := pipeline.Validate(prev, data.Quote{Close: 401, ChangePct: 0.4}, day)
		Expect(result.Correct).To(BeTrue())

		result = pipeline.Validate(prev, data.Quote{Close: 405, ChangePct: 1.2}, day)
		Expect(result.Correct).To(BeFalse())
	})

	It("scales the realized P&L by the prior allocation", func() {
		prev := decisionFor(prevDay, "bullish", 75, 0.8)
		result := pipeline.Validate(prev, data.Quote{Close: 408, ChangePct: 2.0}, day)
		Expect(result.PnLPct).To(Equal(1.5))
		Expect(result.PrevRiskyPct).To(Equal(75.0))
	})
})

var _ = Describe("WeeklyReview", func() {
	It("rejects an empty week", func() {
		_, err := pipeline.WeeklyReview(nil)
		Expect(err).To(MatchError(pipeline.ErrNoDecisions))
	})

	It("aggregates returns, alpha and accuracy", func() {
		day := time.Date(2022, 6, 6, 0, 0, 0, 0, time.UTC)
		decisions := []*pipeline.Decision{
			decisionFor(day, "bullish", 50, 2.0),
			decisionFor(day.AddDate(0, 0, 1), "bullish", 80, -1.0),
			decisionFor(day.AddDate(0, 0, 2), "neutral", 50, 0.2),
		}

		summary, err := pipeline.WeeklyReview(decisions)
		Expect(err).To(BeNil())

		Expect(summary.TradingDays).To(Equal(3))
		// 2*.5 - 1*.8 + .2*.5
		Expect(summary.WeekReturnPct).To(BeNumerically("~", 0.3, 1e-9))
		Expect(summary.BenchmarkReturnPct).To(BeNumerically("~", 1.2, 1e-9))
		Expect(summary.AlphaPct).To(BeNumerically("~", -0.9, 1e-9))

		Expect(summary.WinDays).To(Equal(2))
		Expect(summary.LoseDays).To(Equal(1))
		Expect(summary.WinRatePct).To(BeNumerically("~", 200.0/3.0, 1e-9))

		// avg gain 0.55 over avg loss 0.8
		Expect(summary.ProfitLossRatio).To(BeNumerically("~", 0.55/0.8, 1e-9))

		// peak 1.0 after day one, trough 0.2 after day two
		Expect(summary.MaxDrawdownPct).To(BeNumerically("~", 0.8, 1e-9))

		// bullish up, bullish down, neutral small: two of three
		Expect(summary.AccuracyPct).To(BeNumerically("~", 200.0/3.0, 1e-9))
	})
})
