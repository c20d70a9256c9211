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
	"time"
)

// PriceBar is one trading day of OHLCV data. Bars are immutable once fetched
// and histories are ordered ascending by date; holidays are simply absent.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the bar satisfies low <= min(open,close) <=
// max(open,close) <= high and volume >= 0
func (bar *PriceBar) Valid() bool {
	lo := bar.Open
	hi := bar.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	return bar.Low <= lo && hi <= bar.High && bar.Volume >= 0
}

// Quote is the latest close with its change relative to the prior bar
type Quote struct {
	Ticker    string  `json:"ticker"`
	Close     float64 `json:"close"`
	PrevClose float64 `json:"prev_close"`
	ChangePct float64 `json:"change_pct"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    float64 `json:"volume"`
}

// Fallback readings used when a secondary feed is unavailable. The pipeline
// degrades gracefully on macro outages; only the primary instrument is fatal.
const (
	DefaultVIX     = 20.0
	DefaultUS10Y   = 4.5
	DefaultUS2Y    = 4.3
	DefaultDXY     = 108.0
	DefaultYieldCh = 0.0
)

// MacroSnapshot holds same-day scalar macro readings
type MacroSnapshot struct {
	VIX          float64 `json:"vix"`
	VIXChangePct float64 `json:"vix_change_pct"`
	US10Y        float64 `json:"us10y"`
	US10YChange  float64 `json:"us10y_change"`
	US2Y         float64 `json:"us2y"`
	DXY          float64 `json:"dxy"`
}

// DefaultMacroSnapshot returns a snapshot populated entirely from fallback
// constants
func DefaultMacroSnapshot() MacroSnapshot {
	return MacroSnapshot{
		VIX:         DefaultVIX,
		US10Y:       DefaultUS10Y,
		US10YChange: DefaultYieldCh,
		US2Y:        DefaultUS2Y,
		DXY:         DefaultDXY,
	}
}

// QuoteFromBars derives a Quote from the last two bars of a history. A
// single-bar history yields a zero change against itself.
func QuoteFromBars(ticker string, bars []PriceBar) (Quote, error) {
	if len(bars) == 0 {
		return Quote{}, ErrNoQuote
	}

	latest := bars[len(bars)-1]
	prev := latest
	if len(bars) > 1 {
		prev = bars[len(bars)-2]
	}

	quote := Quote{
		Ticker:    ticker,
		Close:     latest.Close,
		PrevClose: prev.Close,
		High:      latest.High,
		Low:       latest.Low,
		Volume:    latest.Volume,
	}
	if prev.Close != 0 {
		quote.ChangePct = (latest.Close - prev.Close) / prev.Close * 100
	}
	return quote, nil
}
