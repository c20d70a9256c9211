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

package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const stooqAPI = "https://stooq.com"

type stooq struct {
	baseURL string
	client  *http.Client
}

// NewStooq creates an EOD price provider backed by the stooq.com CSV endpoint
func NewStooq() *stooq {
	return &stooq{
		baseURL: stooqAPI,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *stooq) DataType() string {
	return "eod"
}

type historyResult struct {
	Symbol string
	Bars   []PriceBar
	Err    error
}

// GetHistories downloads several symbols concurrently, one worker per symbol
func (s *stooq) GetHistories(ctx context.Context, symbols []string, begin, end time.Time) (map[string][]PriceBar, error) {
	res := make(map[string][]PriceBar, len(symbols))
	ch := make(chan historyResult)

	for ii := range symbols {
		go func(symbol string) {
			bars, err := s.GetHistory(ctx, symbol, begin, end)
			ch <- historyResult{Symbol: symbol, Bars: bars, Err: err}
		}(symbols[ii])
	}

	var firstErr error
	for range symbols {
		v := <-ch
		if v.Err != nil {
			log.Warn().Err(v.Err).Str("Symbol", v.Symbol).Msg("cannot download symbol history")
			if firstErr == nil {
				firstErr = v.Err
			}
			continue
		}
		res[v.Symbol] = v.Bars
	}

	return res, firstErr
}

func (s *stooq) GetHistory(ctx context.Context, symbol string, begin, end time.Time) ([]PriceBar, error) {
	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d", s.baseURL,
		strings.ToLower(symbol), begin.Format("20060102"), end.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		subLog.Warn().Err(err).Msg("failed to load eod prices")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		subLog.Warn().Err(err).Int("HTTPResponseStatusCode", resp.StatusCode).Msg("read eod price body failed")
		return nil, err
	}

	if resp.StatusCode >= 400 {
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Msg("provider request failed")
		return nil, ErrProviderStatus
	}

	bars, err := parseCSVBars(string(body))
	if err != nil {
		subLog.Warn().Err(err).Msg("could not parse provider payload")
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrEmptyHistory
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// parseCSVBars reads the Date,Open,High,Low,Close,Volume CSV the endpoint
// returns. Rows with unparseable fields are skipped; indexes (no volume
// column) report volume 0.
func parseCSVBars(payload string) ([]PriceBar, error) {
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	if len(lines) < 2 {
		return nil, ErrMalformedPayload
	}

	bars := make([]PriceBar, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < 5 {
			continue
		}

		date, err := time.Parse("2006-01-02", fields[0])
		if err != nil {
			continue
		}

		vals := make([]float64, 0, 4)
		ok := true
		for _, f := range fields[1:5] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				ok = false
				break
			}
			vals = append(vals, v)
		}
		if !ok {
			continue
		}

		bar := PriceBar{
			Date:  date,
			Open:  vals[0],
			High:  vals[1],
			Low:   vals[2],
			Close: vals[3],
		}
		if len(fields) >= 6 {
			if vol, err := strconv.ParseFloat(fields[5], 64); err == nil {
				bar.Volume = vol
			}
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
