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

package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// HistoryCache is a two-tier cache for downloaded price histories: a local
// LRU in front of an optional shared redis. Entries are keyed by symbol and
// date range so repeated backtests over the same window skip the provider.
type HistoryCache struct {
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

// CacheConfig controls cache sizing; RedisURL may be blank to run local-only
type CacheConfig struct {
	LocalSize int
	RedisURL  string
	TTL       time.Duration
}

func NewHistoryCache(cfg CacheConfig) (*HistoryCache, error) {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = 64
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 4 * time.Hour
	}

	local, err := lru.New(cfg.LocalSize)
	if err != nil {
		return nil, err
	}

	cache := &HistoryCache{local: local, ttl: cfg.TTL}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return nil, err
		}
		cache.rdb = redis.NewClient(opt)
	}

	return cache, nil
}

func cacheKey(symbol string, begin, end time.Time) string {
	return fmt.Sprintf("history:%s:%s:%s", symbol, begin.Format("20060102"), end.Format("20060102"))
}

func (c *HistoryCache) Get(ctx context.Context, symbol string, begin, end time.Time) ([]PriceBar, bool) {
	key := cacheKey(symbol, begin, end)

	if v, ok := c.local.Get(key); ok {
		return v.([]PriceBar), true
	}

	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var bars []PriceBar
			if err := json.Unmarshal(raw, &bars); err == nil {
				c.local.Add(key, bars)
				return bars, true
			}
			log.Warn().Err(err).Str("Key", key).Msg("discarding unreadable cache entry")
		}
	}

	return nil, false
}

func (c *HistoryCache) Set(ctx context.Context, symbol string, begin, end time.Time, bars []PriceBar) {
	key := cacheKey(symbol, begin, end)
	c.local.Add(key, bars)

	if c.rdb != nil {
		raw, err := json.Marshal(bars)
		if err != nil {
			log.Warn().Err(err).Str("Key", key).Msg("could not marshal cache entry")
			return
		}
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("Key", key).Msg("could not store cache entry in redis")
		}
	}
}
