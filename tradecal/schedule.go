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

	"github.com/penny-vault/advisor/common"
	"github.com/robfig/cron/v3"
)

// Schedule is a cron expression constrained to trading days. Occurrences
// that land on weekends or holidays are skipped, not shifted.
type Schedule struct {
	spec cron.Schedule
	tz   *time.Location
}

// NewSchedule parses a standard five field cron expression evaluated in
// the exchange's timezone
func NewSchedule(cronSpec string) (*Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	spec, err := parser.Parse(cronSpec)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		spec: spec,
		tz:   common.GetTimezone(),
	}, nil
}

// Next returns the first cron occurrence after from that falls on a
// trading day
func (s *Schedule) Next(from time.Time) time.Time {
	next := s.spec.Next(from.In(s.tz))
	for !IsMarketDay(next) {
		next = s.spec.Next(next)
	}
	return next
}
