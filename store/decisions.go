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

package store

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/pipeline"
	"github.com/rs/zerolog/log"
)

const saveDecisionSQL = `
INSERT INTO decisions (event_date, ticker, strategy, composite, regime, signal, risky_pct, next_day_bias, record)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (event_date, ticker, strategy) DO UPDATE SET
    composite = EXCLUDED.composite,
    regime = EXCLUDED.regime,
    signal = EXCLUDED.signal,
    risky_pct = EXCLUDED.risky_pct,
    next_day_bias = EXCLUDED.next_day_bias,
    record = EXCLUDED.record`

// SaveDecision upserts the day's decision; repeated runs for the same day
// overwrite the earlier record rather than duplicating it
func SaveDecision(ctx context.Context, decision *pipeline.Decision) error {
	record, err := json.Marshal(decision)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, saveDecisionSQL,
		decision.Date, decision.Ticker, decision.Strategy,
		decision.CompositeScore, string(decision.Regime), string(decision.Signal),
		decision.Allocation.RiskyPct, decision.NextDayBias, record)
	if err != nil {
		log.Error().Stack().Err(err).
			Time("Date", decision.Date).
			Str("Strategy", decision.Strategy).
			Msg("could not save decision")
		return err
	}
	return nil
}

// GetDecision loads one decision by its natural key
func GetDecision(ctx context.Context, day time.Time, ticker, strategyName string) (*pipeline.Decision, error) {
	var record []byte
	err := pool.QueryRow(ctx,
		`SELECT record FROM decisions WHERE event_date = $1 AND ticker = $2 AND strategy = $3`,
		day, ticker, strategyName).Scan(&record)
	if err != nil {
		return nil, err
	}

	decision := &pipeline.Decision{}
	if err := json.Unmarshal(record, decision); err != nil {
		return nil, err
	}
	return decision, nil
}

// GetRecentDecisions returns decisions for the trailing window in
// chronological order
func GetRecentDecisions(ctx context.Context, ticker, strategyName string, since time.Time) ([]*pipeline.Decision, error) {
	rows, err := pool.Query(ctx,
		`SELECT record FROM decisions WHERE ticker = $1 AND strategy = $2 AND event_date >= $3 ORDER BY event_date`,
		ticker, strategyName, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []*pipeline.Decision
	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, err
		}
		decision := &pipeline.Decision{}
		if err := json.Unmarshal(record, decision); err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}
