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

package backtest

import (
	"github.com/penny-vault/advisor/data"
)

// Series is the aligned input to a backtest run: the primary instrument's
// bars plus per-bar macro readings forward filled onto the same dates.
// Missing macro series fall back to their documented defaults so a run
// never blocks on a secondary feed.
type Series struct {
	Bars        []data.PriceBar
	VIX         []float64
	US10Y       []float64
	US10YChange []float64
}

// NewSeries aligns the optional vix and treasury series to the primary
// bars by date, forward filling gaps. Either macro input may be nil.
func NewSeries(bars, vixBars, tnxBars []data.PriceBar) *Series {
	s := &Series{
		Bars:        bars,
		VIX:         alignFFill(bars, vixBars, data.DefaultVIX),
		US10Y:       alignFFill(bars, tnxBars, data.DefaultUS10Y),
		US10YChange: make([]float64, len(bars)),
	}

	if tnxBars != nil {
		for ii := 1; ii < len(s.US10Y); ii++ {
			s.US10YChange[ii] = s.US10Y[ii] - s.US10Y[ii-1]
		}
	}

	return s
}

// alignFFill projects the closes of other onto the dates of bars,
// carrying the last seen value forward and using fallback before the
// first overlap
func alignFFill(bars, other []data.PriceBar, fallback float64) []float64 {
	out := make([]float64, len(bars))
	last := fallback
	jj := 0
	for ii := range bars {
		for jj < len(other) && !other[jj].Date.After(bars[ii].Date) {
			last = other[jj].Close
			jj++
		}
		out[ii] = last
	}
	return out
}
