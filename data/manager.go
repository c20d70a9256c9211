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
	"time"

	"github.com/penny-vault/advisor/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// Mag7Symbols is the megacap basket whose average daily change feeds the
// breadth factor
var Mag7Symbols = []string{
	"AAPL.US", "MSFT.US", "GOOGL.US", "AMZN.US", "NVDA.US", "META.US", "TSLA.US",
}

// Manager fronts a price provider with an optional history cache. All
// methods take a context and return explicit errors; no global state.
type Manager struct {
	provider Provider
	cache    *HistoryCache
}

func NewManager(provider Provider, cache *HistoryCache) *Manager {
	return &Manager{
		provider: provider,
		cache:    cache,
	}
}

// FetchHistory returns daily bars for symbol over [begin, end], consulting
// the cache first when one is configured
func (m *Manager) FetchHistory(ctx context.Context, symbol string, begin, end time.Time) ([]PriceBar, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "data.FetchHistory")
	defer span.End()

	if m.cache != nil {
		if bars, ok := m.cache.Get(ctx, symbol, begin, end); ok {
			return bars, nil
		}
	}

	bars, err := m.provider.GetHistory(ctx, symbol, begin, end)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.Set(ctx, symbol, begin, end, bars)
	}
	return bars, nil
}

// FetchQuote returns the latest close and daily change for symbol, derived
// from the trailing two weeks of bars
func (m *Manager) FetchQuote(ctx context.Context, symbol string, asOf time.Time) (Quote, error) {
	bars, err := m.FetchHistory(ctx, symbol, asOf.AddDate(0, 0, -14), asOf)
	if err != nil {
		return Quote{}, err
	}
	return QuoteFromBars(symbol, bars)
}

type mag7Result struct {
	Symbol    string
	ChangePct float64
	Err       error
}

// FetchMag7Change averages the daily percent change across the megacap
// basket. Symbols that fail to download are simply left out of the average;
// an empty basket returns 0.
func (m *Manager) FetchMag7Change(ctx context.Context, asOf time.Time) float64 {
	ch := make(chan mag7Result)
	for ii := range Mag7Symbols {
		go func(symbol string) {
			quote, err := m.FetchQuote(ctx, symbol, asOf)
			ch <- mag7Result{Symbol: symbol, ChangePct: quote.ChangePct, Err: err}
		}(Mag7Symbols[ii])
	}

	var sum float64
	var n int
	for range Mag7Symbols {
		v := <-ch
		if v.Err != nil {
			log.Warn().Err(v.Err).Str("Symbol", v.Symbol).Msg("skipping basket member")
			continue
		}
		sum += v.ChangePct
		n++
	}

	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
