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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/penny-vault/advisor/backtest"
	"github.com/penny-vault/advisor/common"
	"github.com/rs/zerolog/log"
)

// SaveBacktestRun persists a full backtest result. The daily series can
// run to thousands of rows so the record is stored as a compressed,
// checksummed blob; headline metrics stay queryable as json.
func SaveBacktestRun(ctx context.Context, result *backtest.Result) (uuid.UUID, error) {
	id := uuid.New()

	raw, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, err
	}

	payload, err := common.CompressBlob(raw)
	if err != nil {
		return uuid.Nil, err
	}

	rawMetrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO backtest_runs (id, strategy, metrics, payload) VALUES ($1, $2, $3, $4)`,
		id, result.Strategy, rawMetrics, payload)
	if err != nil {
		log.Error().Stack().Err(err).Str("Strategy", result.Strategy).Msg("could not save backtest run")
		return uuid.Nil, err
	}

	return id, nil
}

// LoadBacktestRun restores a persisted backtest result by id
func LoadBacktestRun(ctx context.Context, id uuid.UUID) (*backtest.Result, error) {
	var payload []byte
	err := pool.QueryRow(ctx,
		`SELECT payload FROM backtest_runs WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}

	raw, err := common.DecompressBlob(payload)
	if err != nil {
		log.Error().Stack().Err(err).Str("ID", id.String()).Msg("backtest payload is corrupt")
		return nil, err
	}

	result := &backtest.Result{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return result, nil
}
