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

package backtest_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/backtest"
)

var _ = Describe("Metrics", func() {
	Describe("SharpeRatio", func() {
		It("is zero for short or flat series", func() {
			Expect(backtest.SharpeRatio(nil)).To(Equal(0.0))
			Expect(backtest.SharpeRatio([]float64{1})).To(Equal(0.0))
			Expect(backtest.SharpeRatio([]float64{1, 1, 1})).To(Equal(0.0))
		})

		It("annualizes mean over sample standard deviation", func() {
			pnls := []float64{2, 1, 2, 1}
			// mean 1.5, sample std sqrt(1/3)
			want := 1.5 / math.Sqrt(1.0/3.0) * math.Sqrt(252)
			Expect(backtest.SharpeRatio(pnls)).To(BeNumerically("~", want, 1e-9))
		})
	})

	Describe("MaxDrawdown", func() {
		It("is zero for an empty or monotonically rising curve", func() {
			Expect(backtest.MaxDrawdown(nil)).To(Equal(0.0))
			Expect(backtest.MaxDrawdown([]float64{1, 2, 3})).To(Equal(0.0))
		})

		It("measures declines relative to the running peak", func() {
			Expect(backtest.MaxDrawdown([]float64{10, 5, 8})).To(Equal(50.0))
		})

		It("falls back to absolute decline while the curve is under water", func() {
			Expect(backtest.MaxDrawdown([]float64{-1, -3, -2})).To(Equal(2.0))
		})
	})

	Describe("CalculateMetrics", func() {
		It("summarizes a mixed daily series", func() {
			daily := []backtest.DailyResult{
				{PnLPct: 2, CumulativePnL: 2},
				{PnLPct: -1, CumulativePnL: 1},
				{PnLPct: 3, CumulativePnL: 4},
				{PnLPct: 0, CumulativePnL: 4},
			}
			m := backtest.CalculateMetrics(daily, 3.0, 3, 4)

			Expect(m.TotalReturn).To(Equal(4.0))
			Expect(m.BenchmarkReturn).To(Equal(3.0))
			Expect(m.Alpha).To(Equal(1.0))
			Expect(m.WinRate).To(Equal(50.0))
			// avg gain 2.5 over avg loss 1
			Expect(m.ProfitLossRatio).To(Equal(2.5))
			// trough at 1 from a peak of 2
			Expect(m.MaxDrawdown).To(Equal(50.0))
			Expect(m.Accuracy).To(Equal(75.0))
			Expect(m.TradeCount).To(Equal(4))
		})

		It("defaults the average loss when no losing day exists", func() {
			daily := []backtest.DailyResult{
				{PnLPct: 2, CumulativePnL: 2},
				{PnLPct: 2, CumulativePnL: 4},
			}
			m := backtest.CalculateMetrics(daily, 0, 0, 0)
			Expect(m.ProfitLossRatio).To(Equal(2.0))
			Expect(m.Accuracy).To(Equal(0.0))
		})
	})
})
