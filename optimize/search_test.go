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

package optimize_test

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/backtest"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/optimize"
	"github.com/penny-vault/advisor/strategies"
	"github.com/penny-vault/advisor/strategies/trend"
)

func trendingSeries(n int) *backtest.Series {
	bars := make([]data.PriceBar, n)
	day := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	for ii := range bars {
		close := 100.0 + float64(ii)
		bars[ii] = data.PriceBar{Date: day, Open: close, High: close + 1, Low: close - 1, Close: close, Volume: 1000}
		day = day.AddDate(0, 0, 1)
	}
	return backtest.NewSeries(bars, nil, nil)
}

func trendCandidate(index int, params trend.Params) optimize.Candidate {
	raw, err := json.Marshal(params)
	Expect(err).To(BeNil())
	return optimize.Candidate{Index: index, Args: map[string]json.RawMessage{"params": raw}}
}

var _ = Describe("Search", func() {
	BeforeEach(func() {
		strategies.InitializeStrategyMap()
	})

	It("errors when no candidates are given", func() {
		search := optimize.NewSearch(trend.Shortcode, trendingSeries(80))
		_, err := search.Run(context.Background(), nil)
		Expect(err).To(MatchError(optimize.ErrNoViableParameters))
	})

	It("ranks every candidate and keeps ties in enumeration order", func() {
		series := trendingSeries(80)
		search := optimize.NewSearch(trend.Shortcode, series)
		search.Workers = 4

		// two identical parameter sets produce identical metrics
		candidates := []optimize.Candidate{
			trendCandidate(0, trend.DefaultParams()),
			trendCandidate(1, trend.DefaultParams()),
		}

		ranked, err := search.Run(context.Background(), candidates)
		Expect(err).To(BeNil())
		Expect(ranked).To(HaveLen(2))
		Expect(ranked[0].Objective).To(Equal(ranked[1].Objective))
		Expect(ranked[0].Candidate.Index).To(Equal(0))
		Expect(ranked[1].Candidate.Index).To(Equal(1))
	})

	It("returns the same winner on repeated runs", func() {
		series := trendingSeries(80)
		candidates := optimize.TrendGrid()[:10]

		first, err := optimize.NewSearch(trend.Shortcode, series).Run(context.Background(), candidates)
		Expect(err).To(BeNil())
		second, err := optimize.NewSearch(trend.Shortcode, series).Run(context.Background(), candidates)
		Expect(err).To(BeNil())

		Expect(second[0].Candidate.Index).To(Equal(first[0].Candidate.Index))
		Expect(second[0].Objective).To(Equal(first[0].Objective))
	})

	It("orders results best first", func() {
		series := trendingSeries(80)
		search := optimize.NewSearch(trend.Shortcode, series)

		ranked, err := search.Run(context.Background(), optimize.TrendGrid()[:6])
		Expect(err).To(BeNil())
		for ii := 1; ii < len(ranked); ii++ {
			Expect(ranked[ii-1].Objective).To(BeNumerically(">=", ranked[ii].Objective))
		}
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		search := optimize.NewSearch(trend.Shortcode, trendingSeries(80))
		search.Workers = 1
		_, err := search.Run(ctx, optimize.TrendGrid())
		Expect(err).To(MatchError(context.Canceled))
	})
})
