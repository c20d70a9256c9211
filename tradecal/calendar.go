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

// US equity trading calendar: weekends and NYSE holidays are closed days,
// everything else trades. Holiday dates are computed from the exchange's
// rules so no external holiday feed is needed.
package tradecal

import (
	"sync"
	"time"

	"github.com/penny-vault/advisor/common"
)

var (
	holidayCache  = map[int]map[int64]bool{}
	holidayLocker sync.Mutex
)

func holidaySet(year int, tz *time.Location) map[int64]bool {
	holidayLocker.Lock()
	defer holidayLocker.Unlock()

	if set, ok := holidayCache[year]; ok {
		return set
	}

	set := make(map[int64]bool)
	for _, d := range holidaysForYear(year, tz) {
		set[d.Unix()] = true
	}
	holidayCache[year] = set
	return set
}

// IsMarketHoliday returns true if the specified date is a market holiday
func IsMarketHoliday(t time.Time) bool {
	tz := common.GetTimezone()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
	return holidaySet(t.Year(), tz)[d.Unix()]
}

// IsMarketDay returns true if the specified date is a valid trading day
func IsMarketDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsMarketHoliday(t)
}

// PrevTradingDay returns the last trading day strictly before t
func PrevTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !IsMarketDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// NextTradingDay returns the first trading day strictly after t
func NextTradingDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, 1)
	for !IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// MostRecentTradingDay returns t itself when it trades, otherwise the
// closest trading day before it
func MostRecentTradingDay(t time.Time) time.Time {
	if IsMarketDay(t) {
		return t
	}
	return PrevTradingDay(t)
}
