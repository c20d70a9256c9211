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
	"errors"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/backtest"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/strategies/strategy"
)

// scripted returns a pre-planned allocation per scoring day; the composite
// it emits doubles as the target risky percentage so assertions stay exact
type scripted struct {
	allocs  []float64
	signals []strategy.Signal
	errOn   int
	call    int
}

func (s *scripted) GetInfo() strategy.StrategyInfo {
	return strategy.StrategyInfo{Name: "Scripted", Shortcode: "scripted"}
}

func (s *scripted) Score(obs *strategy.Observation) (*strategy.ScoreCard, error) {
	idx := s.call
	s.call++
	if s.errOn > 0 && s.call == s.errOn {
		return nil, errors.New("scripted failure")
	}
	signal := strategy.SignalBuy
	if len(s.signals) > idx {
		signal = s.signals[idx]
	}
	return &strategy.ScoreCard{
		Composite: s.allocs[idx%len(s.allocs)],
		Signal:    signal,
		Regime:    strategy.RegimeNeutral,
	}, nil
}

func (s *scripted) Allocate(composite float64, risk strategy.RiskPreference) strategy.Allocation {
	return strategy.Allocation{AdjustedScore: composite, RiskyPct: composite, CashPct: 100 - composite}
}

func (s *scripted) Parameters() map[string]json.RawMessage {
	return map[string]json.RawMessage{}
}

func barsFromCloses(closes []float64) []data.PriceBar {
	bars := make([]data.PriceBar, len(closes))
	day := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	for ii, c := range closes {
		bars[ii] = data.PriceBar{Date: day, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

var _ = Describe("Engine", func() {
	It("refuses a series with fewer than two bars", func() {
		engine := backtest.NewEngine(backtest.NewSeries(barsFromCloses([]float64{100}), nil, nil))
		_, err := engine.Run(&scripted{allocs: []float64{100}})
		Expect(err).To(MatchError(backtest.ErrInsufficientBars))
	})

	Context("in additive mode", func() {
		It("applies yesterday's allocation to today's move", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{100, 101, 102, 103, 104}), nil, nil)
			engine := backtest.NewEngine(series)

			result, err := engine.Run(&scripted{allocs: []float64{100}})
			Expect(err).To(BeNil())
			Expect(result.Daily).To(HaveLen(4))

			// the first day still carries the initial 50 percent book
			Expect(result.Daily[0].PnLPct).To(BeNumerically("~", 0.5, 1e-9))
			Expect(result.Daily[1].PnLPct).To(BeNumerically("~", 100.0/101.0, 1e-9))

			Expect(result.Metrics.BenchmarkReturn).To(Equal(4.0))
			Expect(result.Metrics.TotalReturn).To(BeNumerically("~", 3.44, 0.01))
			Expect(result.Metrics.MaxDrawdown).To(Equal(0.0))
			Expect(result.Metrics.WinRate).To(Equal(100.0))
			Expect(result.Metrics.TradeCount).To(Equal(4))
			Expect(result.Metrics.Accuracy).To(Equal(100.0))
		})

		It("carries the book forward over a failed scoring day", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{100, 101, 102, 103}), nil, nil)
			engine := backtest.NewEngine(series)

			result, err := engine.Run(&scripted{allocs: []float64{100}, errOn: 2})
			Expect(err).To(BeNil())
			Expect(result.Daily).To(HaveLen(2))
		})

		It("counts only correct directional calls", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{100, 102, 101, 103}), nil, nil)
			engine := backtest.NewEngine(series)

			// buy, buy, hold: second buy lands on a down day
			strat := &scripted{
				allocs:  []float64{50},
				signals: []strategy.Signal{strategy.SignalBuy, strategy.SignalBuy, strategy.SignalHold},
			}
			result, err := engine.Run(strat)
			Expect(err).To(BeNil())
			Expect(result.Metrics.TradeCount).To(Equal(2))
			Expect(result.Metrics.Accuracy).To(Equal(50.0))
		})
	})

	Context("in share simulation mode", func() {
		It("buys and sells whole shares against the cash balance", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{10, 10, 10}), nil, nil)
			engine := backtest.NewEngine(series)
			engine.Mode = backtest.ModeShares
			engine.InitialCapital = 1000

			result, err := engine.Run(&scripted{allocs: []float64{100, 0}})
			Expect(err).To(BeNil())

			Expect(result.Trades).To(HaveLen(2))
			Expect(result.Trades[0].Action).To(Equal(strategy.SignalBuy))
			Expect(result.Trades[0].Shares).To(Equal(int64(100)))
			Expect(result.Trades[1].Action).To(Equal(strategy.SignalSell))
			Expect(result.Trades[1].Shares).To(Equal(int64(100)))
			Expect(result.FinalNAV).To(Equal(1000.0))
		})

		It("tracks NAV through a price move", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{10, 10, 12}), nil, nil)
			engine := backtest.NewEngine(series)
			engine.Mode = backtest.ModeShares
			engine.InitialCapital = 1000

			result, err := engine.Run(&scripted{allocs: []float64{100}})
			Expect(err).To(BeNil())

			// 100 shares bought at 10, marked at 12 on the last day
			Expect(result.FinalNAV).To(Equal(1200.0))
			Expect(result.Daily[1].PnLPct).To(BeNumerically("~", 20.0, 1e-9))
		})
	})

	Describe("Series", func() {
		It("falls back to default macro readings when feeds are missing", func() {
			series := backtest.NewSeries(barsFromCloses([]float64{100, 101}), nil, nil)
			Expect(series.VIX).To(Equal([]float64{data.DefaultVIX, data.DefaultVIX}))
			Expect(series.US10Y).To(Equal([]float64{data.DefaultUS10Y, data.DefaultUS10Y}))
			Expect(series.US10YChange).To(Equal([]float64{0, 0}))
		})

		It("forward fills macro bars onto the primary dates", func() {
			bars := barsFromCloses([]float64{100, 101, 102})
			vix := []data.PriceBar{
				{Date: bars[0].Date, Close: 18, Open: 18, High: 19, Low: 17},
				{Date: bars[2].Date, Close: 25, Open: 25, High: 26, Low: 24},
			}
			series := backtest.NewSeries(bars, vix, nil)
			Expect(series.VIX).To(Equal([]float64{18, 18, 25}))
		})
	})
})
