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

package strategies

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/strategies/momentum"
	"github.com/penny-vault/advisor/strategies/strategy"
	"github.com/penny-vault/advisor/strategies/trend"
	"github.com/rs/zerolog/log"
)

var ErrUnknownStrategy = errors.New("unknown strategy shortcode")

// StrategyList List of all strategies
var StrategyList = []strategy.StrategyInfo{}

// StrategyMap Map of strategies keyed by shortcode
var StrategyMap = make(map[string]*strategy.StrategyInfo)

// InitializeStrategyMap configure the strategy map
func InitializeStrategyMap() {
	StrategyList = StrategyList[:0]
	for k := range StrategyMap {
		delete(StrategyMap, k)
	}

	Register((&momentum.MultiFactorMomentum{}).GetInfo())
	Register((&trend.TrendFollower{}).GetInfo())
}

// Register adds a strategy to the list and map
func Register(info strategy.StrategyInfo) {
	StrategyList = append(StrategyList, info)
	StrategyMap[info.Shortcode] = &StrategyList[len(StrategyList)-1]
}

// New constructs a strategy by shortcode with the given raw parameters.
// Passing nil args builds the strategy with its default parameters.
func New(shortcode string, args map[string]json.RawMessage) (strategy.Strategy, error) {
	info, ok := StrategyMap[shortcode]
	if !ok {
		log.Error().Str("Shortcode", shortcode).Msg("strategy is not registered")
		return nil, ErrUnknownStrategy
	}
	if args == nil {
		args = make(map[string]json.RawMessage)
	}
	return info.Factory(args)
}
