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

package tradecal

import (
	"time"
)

// holidaysForYear computes the NYSE full closure dates for a year. Early
// close half days are regular trading days for daily EOD purposes.
func holidaysForYear(year int, tz *time.Location) []time.Time {
	days := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, tz)),
		nthWeekday(year, time.January, time.Monday, 3, tz),
		nthWeekday(year, time.February, time.Monday, 3, tz),
		goodFriday(year, tz),
		lastWeekday(year, time.May, time.Monday, tz),
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, tz)),
		nthWeekday(year, time.September, time.Monday, 1, tz),
		nthWeekday(year, time.November, time.Thursday, 4, tz),
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, tz)),
	}

	// Juneteenth became a market holiday in 2022
	if year >= 2022 {
		days = append(days, observed(time.Date(year, time.June, 19, 0, 0, 0, 0, tz)))
	}

	return days
}

// observed shifts a fixed date holiday to Friday or Monday when it lands
// on a weekend
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, month time.Month, weekday time.Weekday, n int, tz *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, tz)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, month time.Month, weekday time.Weekday, tz *time.Location) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, tz).AddDate(0, 0, -1)
	for d.Weekday() != weekday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// goodFriday is two days before Easter Sunday, via the Gregorian computus
func goodFriday(year int, tz *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, tz)
	return easter.AddDate(0, 0, -2)
}
