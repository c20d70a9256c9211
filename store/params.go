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
	"errors"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"
	"github.com/penny-vault/advisor/backtest"
	"github.com/rs/zerolog/log"
)

// LoadParameters returns the persisted parameter document for a strategy.
// An absent row is not an error: callers get nil and fall back to the
// strategy's built in defaults.
func LoadParameters(ctx context.Context, strategyName string) (map[string]json.RawMessage, error) {
	var raw []byte
	err := pool.QueryRow(ctx,
		`SELECT params FROM strategy_params WHERE strategy = $1`, strategyName).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	params := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// SaveParameters overwrites a strategy's parameter document wholesale,
// recording the metrics of the backtest that selected it
func SaveParameters(ctx context.Context, strategyName string, params map[string]json.RawMessage, metrics backtest.Metrics) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return err
	}
	rawMetrics, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
INSERT INTO strategy_params (strategy, params, metrics, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (strategy) DO UPDATE SET
    params = EXCLUDED.params,
    metrics = EXCLUDED.metrics,
    updated_at = now()`,
		strategyName, rawParams, rawMetrics)
	if err != nil {
		log.Error().Stack().Err(err).Str("Strategy", strategyName).Msg("could not save parameters")
		return err
	}
	return nil
}
