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

package data_test

import (
	"context"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/data"
)

var _ = Describe("Stooq provider", func() {
	var (
		ctx      context.Context
		provider data.Provider
		begin    time.Time
		end      time.Time
	)

	const historyURL = "https://stooq.com/q/d/l/?s=qqq.us&d1=20220103&d2=20220107&i=d"

	BeforeEach(func() {
		ctx = context.Background()
		provider = data.NewStooq()
		begin = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
		end = time.Date(2022, 1, 7, 0, 0, 0, 0, time.UTC)
		httpmock.Activate()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	It("reports the eod data type", func() {
		Expect(provider.DataType()).To(Equal("eod"))
	})

	It("parses the csv payload into ordered bars", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,399.00,402.00,397.50,401.68,50000000
2022-01-04,401.50,403.00,395.00,396.47,61000000
2022-01-05,395.00,396.00,387.00,387.72,72000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		bars, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(BeNil())
		Expect(bars).To(HaveLen(3))
		Expect(bars[0].Date).To(Equal(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)))
		Expect(bars[0].Close).To(Equal(401.68))
		Expect(bars[0].Volume).To(Equal(50000000.0))
		Expect(bars[2].Low).To(Equal(387.0))
	})

	It("handles index series that carry no volume column", func() {
		payload := `Date,Open,High,Low,Close
2022-01-03,22.50,23.10,22.00,22.90
2022-01-04,22.90,24.00,22.80,23.70`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		bars, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(BeNil())
		Expect(bars).To(HaveLen(2))
		Expect(bars[0].Volume).To(Equal(0.0))
	})

	It("skips rows with unparseable fields", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,399.00,402.00,397.50,401.68,50000000
not-a-date,1,2,3,4,5
2022-01-04,401.50,No Data,395.00,396.47,61000000
2022-01-05,395.00,396.00,387.00,387.72,72000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		bars, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(BeNil())
		Expect(bars).To(HaveLen(2))
	})

	It("fails when the endpoint returns an error status", func() {
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(503, "unavailable"))

		_, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(MatchError(data.ErrProviderStatus))
	})

	It("fails when the payload has no data rows", func() {
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, "Date,Open,High,Low,Close,Volume"))

		_, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(MatchError(data.ErrMalformedPayload))
	})

	It("fails when every row is unusable", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,No Data,No Data,No Data,No Data,0`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		_, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(MatchError(data.ErrEmptyHistory))
	})

	It("rejects histories with descending dates", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-04,401.50,403.00,395.00,396.47,61000000
2022-01-03,399.00,402.00,397.50,401.68,50000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		_, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(MatchError(data.ErrBarsOutOfOrder))
	})

	It("rejects bars that violate ohlc ordering", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,399.00,390.00,397.50,401.68,50000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))

		_, err := provider.GetHistory(ctx, "QQQ.US", begin, end)
		Expect(err).To(MatchError(data.ErrInvalidBar))
	})

	It("downloads several symbols concurrently", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,399.00,402.00,397.50,401.68,50000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))
		httpmock.RegisterResponder("GET",
			"https://stooq.com/q/d/l/?s=spy.us&d1=20220103&d2=20220107&i=d",
			httpmock.NewStringResponder(200, payload))

		stooq := data.NewStooq()
		histories, err := stooq.GetHistories(ctx, []string{"QQQ.US", "SPY.US"}, begin, end)
		Expect(err).To(BeNil())
		Expect(histories).To(HaveLen(2))
		Expect(histories["QQQ.US"]).To(HaveLen(1))
		Expect(histories["SPY.US"]).To(HaveLen(1))
	})

	It("keeps the symbols that succeed when one download fails", func() {
		payload := `Date,Open,High,Low,Close,Volume
2022-01-03,399.00,402.00,397.50,401.68,50000000`
		httpmock.RegisterResponder("GET", historyURL,
			httpmock.NewStringResponder(200, payload))
		httpmock.RegisterResponder("GET",
			"https://stooq.com/q/d/l/?s=spy.us&d1=20220103&d2=20220107&i=d",
			httpmock.NewStringResponder(500, "boom"))

		stooq := data.NewStooq()
		histories, err := stooq.GetHistories(ctx, []string{"QQQ.US", "SPY.US"}, begin, end)
		Expect(err).To(MatchError(data.ErrProviderStatus))
		Expect(histories).To(HaveKey("QQQ.US"))
		Expect(histories).ToNot(HaveKey("SPY.US"))
	})
})
