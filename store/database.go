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

// Postgres persistence for decisions, strategy parameters and backtest
// runs. All writes are idempotent upserts keyed by their natural key so
// rerunning a day is always safe.
package store

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PgxIface is the slice of pgxpool.Pool the store uses; mocks implement
// the same surface
type PgxIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

var pool PgxIface

// SetPool installs the connection used by package level queries
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Connect establishes the database pool from the database.url setting
func Connect(ctx context.Context) error {
	myPool, err := pgxpool.Connect(ctx, viper.GetString("database.url"))
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		return err
	}
	SetPool(myPool)
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decisions (
    event_date     DATE             NOT NULL,
    ticker         TEXT             NOT NULL,
    strategy       TEXT             NOT NULL,
    composite      DOUBLE PRECISION NOT NULL,
    regime         TEXT             NOT NULL,
    signal         TEXT             NOT NULL,
    risky_pct      DOUBLE PRECISION NOT NULL,
    next_day_bias  TEXT             NOT NULL,
    record         JSONB            NOT NULL,
    created_at     TIMESTAMPTZ      NOT NULL DEFAULT now(),
    PRIMARY KEY (event_date, ticker, strategy)
);

CREATE TABLE IF NOT EXISTS strategy_params (
    strategy   TEXT        NOT NULL PRIMARY KEY,
    params     JSONB       NOT NULL,
    metrics    JSONB,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS backtest_runs (
    id         UUID        NOT NULL PRIMARY KEY,
    strategy   TEXT        NOT NULL,
    metrics    JSONB       NOT NULL,
    payload    BYTEA       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		log.Error().Stack().Err(err).Msg("could not create schema")
		return err
	}
	return nil
}
