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

package cmd

import (
	"context"
	"time"

	"github.com/penny-vault/advisor/common"
	"github.com/penny-vault/advisor/data"
	"github.com/penny-vault/advisor/notify"
	"github.com/penny-vault/advisor/store"
	"github.com/penny-vault/advisor/strategies"
	"github.com/penny-vault/advisor/strategies/strategy"
	"github.com/penny-vault/advisor/tradecal"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// buildManager wires the price provider and history cache from config
func buildManager() *data.Manager {
	cache, err := data.NewHistoryCache(data.CacheConfig{
		LocalSize: viper.GetInt("cache.local_size"),
		RedisURL:  viper.GetString("cache.redis_url"),
		TTL:       viper.GetDuration("cache.ttl"),
	})
	if err != nil {
		log.Warn().Err(err).Msg("history cache unavailable, continuing without one")
		cache = nil
	}
	return data.NewManager(data.NewStooq(), cache)
}

// buildStrategy constructs the selected strategy, preferring persisted
// optimized parameters over built in defaults when a database is
// configured
func buildStrategy(ctx context.Context, withStore bool) (strategy.Strategy, error) {
	strategies.InitializeStrategyMap()
	shortcode := viper.GetString("advisor.strategy")

	if withStore {
		params, err := store.LoadParameters(ctx, shortcode)
		if err != nil {
			log.Warn().Err(err).Str("Strategy", shortcode).Msg("could not load persisted parameters, using defaults")
		} else if params != nil {
			return strategies.New(shortcode, params)
		}
	}

	return strategies.New(shortcode, nil)
}

// connectStore opens the database and makes sure the schema exists
func connectStore(ctx context.Context) error {
	if err := store.Connect(ctx); err != nil {
		return err
	}
	return store.EnsureSchema(ctx)
}

// telegramFromConfig returns nil when no token is configured
func telegramFromConfig() *notify.Telegram {
	token := viper.GetString("telegram.token")
	if token == "" {
		return nil
	}
	return notify.NewTelegram(token, viper.GetString("telegram.chat_id"))
}

func riskFromConfig() strategy.RiskPreference {
	switch viper.GetString("advisor.risk") {
	case "conservative":
		return strategy.RiskConservative
	case "aggressive":
		return strategy.RiskAggressive
	default:
		return strategy.RiskNeutral
	}
}

// asOfDate resolves the --date flag, defaulting to the most recent
// trading day
func asOfDate(dateStr string) time.Time {
	nyc := common.GetTimezone()
	if dateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", dateStr, nyc)
		if err != nil {
			log.Fatal().Err(err).Str("DateStr", dateStr).Msg("could not parse date with format 2006-01-02")
		}
		return d
	}
	return tradecal.MostRecentTradingDay(time.Now().In(nyc))
}
