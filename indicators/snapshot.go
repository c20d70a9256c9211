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

package indicators

import (
	"errors"
	"math"
	"time"

	"github.com/penny-vault/advisor/data"
)

const (
	rsiPeriod  = 14
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
	volWindow  = 20
	srWindow   = 20
	streakCap  = 5
	neutralRSI = 50.0
	maShort    = 5
	maMid      = 20
	maLong     = 60
)

var ErrNoBars = errors.New("no bars to compute indicators from")

// Snapshot holds every derived technical reading for a single trading day.
// Values that need more history than is available are NaN except RSI, which
// stays at its neutral 50.
type Snapshot struct {
	Date      time.Time
	Close     float64
	ChangePct float64

	MA5  float64
	MA20 float64
	MA60 float64

	RSI float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	VolumeRatio float64
	Support     float64
	Resistance  float64

	// distance from the 20 day moving average in percent
	MA20DiffPct float64

	// current unbroken streak relative to the 20 day moving average,
	// at most one of these is non-zero
	DaysAboveMA20 int
	DaysBelowMA20 int
}

// Compute derives a snapshot from the most recent bar of the series.
// Pure function of its input; bars must be ordered ascending by date.
func Compute(bars []data.PriceBar) (*Snapshot, error) {
	return At(bars, len(bars)-1)
}

// At derives a snapshot as of bars[idx], using only bars up to and
// including idx. Backtests call this with a sliding index so no future
// bar ever leaks into a day's reading.
func At(bars []data.PriceBar, idx int) (*Snapshot, error) {
	if idx < 0 || idx >= len(bars) {
		return nil, ErrNoBars
	}

	window := bars[:idx+1]
	closes := make([]float64, len(window))
	for ii := range window {
		closes[ii] = window[ii].Close
	}

	bar := window[len(window)-1]
	snap := &Snapshot{
		Date:  bar.Date,
		Close: bar.Close,
		RSI:   neutralRSI,
	}

	if len(window) >= 2 {
		prev := window[len(window)-2].Close
		if prev != 0 {
			snap.ChangePct = (bar.Close - prev) / prev * 100
		}
	}

	snap.MA5 = trailingMean(closes, maShort)
	snap.MA20 = trailingMean(closes, maMid)
	snap.MA60 = trailingMean(closes, maLong)

	snap.RSI = rsi(closes, rsiPeriod)
	snap.MACD, snap.MACDSignal, snap.MACDHist = macd(closes)
	snap.VolumeRatio = volumeRatio(window)
	snap.Support, snap.Resistance = supportResistance(window)

	if !math.IsNaN(snap.MA20) && snap.MA20 != 0 {
		snap.MA20DiffPct = (bar.Close - snap.MA20) / snap.MA20 * 100
	}

	snap.DaysAboveMA20, snap.DaysBelowMA20 = streaks(closes)

	return snap, nil
}

// trailingMean is the mean of the last n values, NaN when fewer than n exist
func trailingMean(vals []float64, n int) float64 {
	if len(vals) < n {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals[len(vals)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// rsi computes a Wilder style RSI: the average gain and loss are seeded
// with a simple mean over the first `period` diffs and then updated as
// ((period-1)*avg + new) / period for every later bar. Histories too short
// to seed return the neutral 50.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return neutralRSI
	}

	var avgGain, avgLoss float64
	for ii := 1; ii <= period; ii++ {
		diff := closes[ii] - closes[ii-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for ii := period + 1; ii < len(closes); ii++ {
		diff := closes[ii] - closes[ii-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema computes an exponential moving average series with smoothing
// 2/(span+1), seeded from the first value
func ema(vals []float64, span int) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = vals[0]
	for ii := 1; ii < len(vals); ii++ {
		out[ii] = alpha*vals[ii] + (1-alpha)*out[ii-1]
	}
	return out
}

func macd(closes []float64) (line, signal, hist float64) {
	if len(closes) < macdSlow {
		nan := math.NaN()
		return nan, nan, nan
	}

	fast := ema(closes, macdFast)
	slow := ema(closes, macdSlow)
	diff := make([]float64, len(closes))
	for ii := range closes {
		diff[ii] = fast[ii] - slow[ii]
	}
	sig := ema(diff, macdSignal)

	last := len(closes) - 1
	return diff[last], sig[last], diff[last] - sig[last]
}

// volumeRatio compares the latest volume to the trailing 20 day average,
// defaulting to 1 when the window is short or the average is zero
func volumeRatio(bars []data.PriceBar) float64 {
	if len(bars) < volWindow+1 {
		return 1.0
	}
	var sum float64
	for _, bar := range bars[len(bars)-volWindow-1 : len(bars)-1] {
		sum += bar.Volume
	}
	avg := sum / float64(volWindow)
	if avg == 0 {
		return 1.0
	}
	return bars[len(bars)-1].Volume / avg
}

// supportResistance is the min low and max high over the trailing 20 bars,
// or however many exist
func supportResistance(bars []data.PriceBar) (support, resistance float64) {
	start := len(bars) - srWindow
	if start < 0 {
		start = 0
	}
	window := bars[start:]
	support = window[0].Low
	resistance = window[0].High
	for _, bar := range window[1:] {
		if bar.Low < support {
			support = bar.Low
		}
		if bar.High > resistance {
			resistance = bar.High
		}
	}
	return support, resistance
}

// streaks walks backward from the newest close comparing each day against
// its own 20 day moving average and stops the moment the relation flips,
// looking back at most streakCap days
func streaks(closes []float64) (above, below int) {
	last := len(closes) - 1
	if last < 0 {
		return 0, 0
	}

	ma := trailingMean(closes, maMid)
	if math.IsNaN(ma) {
		return 0, 0
	}
	startAbove := closes[last] > ma

	for ii := 0; ii < streakCap; ii++ {
		idx := last - ii
		if idx < maMid-1 {
			break
		}
		dayMA := trailingMean(closes[:idx+1], maMid)
		if math.IsNaN(dayMA) {
			break
		}
		if (closes[idx] > dayMA) != startAbove {
			break
		}
		if startAbove {
			above++
		} else {
			below++
		}
	}
	return above, below
}
