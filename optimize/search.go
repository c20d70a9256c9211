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

// Grid search over a strategy's parameter space. Every candidate runs a
// full backtest over the shared historical series; candidates are ranked
// by a weighted objective over the resulting metrics.
package optimize

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"sync"

	"github.com/penny-vault/advisor/backtest"
	"github.com/penny-vault/advisor/strategies"
	"github.com/rs/zerolog/log"
)

var ErrNoViableParameters = errors.New("no viable parameters found")

// Objective weighs backtest metrics into one scalar used for ranking
type Objective struct {
	Alpha       float64
	Sharpe      float64
	WinRate     float64
	Accuracy    float64
	MaxDrawdown float64
}

// DefaultObjective returns the production ranking weights
func DefaultObjective() Objective {
	return Objective{
		Alpha:       0.30,
		Sharpe:      0.30,
		WinRate:     0.20,
		Accuracy:    0.20,
		MaxDrawdown: 0.10,
	}
}

// Score reduces metrics to the scalar; drawdown subtracts
func (o Objective) Score(m backtest.Metrics) float64 {
	return m.Alpha*o.Alpha +
		m.SharpeRatio*o.Sharpe +
		m.WinRate*o.WinRate +
		m.Accuracy*o.Accuracy -
		m.MaxDrawdown*o.MaxDrawdown
}

// RankedResult is one candidate's outcome
type RankedResult struct {
	Candidate Candidate        `json:"candidate"`
	Metrics   backtest.Metrics `json:"metrics"`
	Objective float64          `json:"objective"`
}

// Search runs the grid for one strategy over a fixed historical series.
// The series is shared read only across workers; every worker builds its
// own strategy instance.
type Search struct {
	Shortcode string
	Series    *backtest.Series
	Mode      backtest.Mode
	Objective Objective
	Workers   int
}

func NewSearch(shortcode string, series *backtest.Series) *Search {
	return &Search{
		Shortcode: shortcode,
		Series:    series,
		Objective: DefaultObjective(),
		Workers:   runtime.NumCPU(),
	}
}

// Run backtests every candidate and returns the full ranking, best first.
// A candidate whose backtest fails is logged and dropped; the search only
// errors when nothing survives.
func (s *Search) Run(ctx context.Context, candidates []Candidate) ([]RankedResult, error) {
	if len(candidates) == 0 {
		return nil, ErrNoViableParameters
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	// slots are written by index so no two workers touch the same entry
	slots := make([]*RankedResult, len(candidates))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for ii := 0; ii < workers; ii++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				slots[idx] = s.evaluate(candidates[idx])
			}
		}()
	}

	for idx := range candidates {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	ranked := make([]RankedResult, 0, len(candidates))
	for _, slot := range slots {
		if slot != nil {
			ranked = append(ranked, *slot)
		}
	}
	if len(ranked) == 0 {
		return nil, ErrNoViableParameters
	}

	// stable sort keeps enumeration order among ties, making repeated
	// searches over identical inputs return identical winners
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Objective > ranked[b].Objective
	})

	return ranked, nil
}

func (s *Search) evaluate(candidate Candidate) *RankedResult {
	subLog := log.With().Str("Strategy", s.Shortcode).Int("Candidate", candidate.Index).Logger()

	strat, err := strategies.New(s.Shortcode, candidate.Args)
	if err != nil {
		subLog.Warn().Err(err).Msg("cannot build candidate strategy")
		return nil
	}

	engine := backtest.NewEngine(s.Series)
	engine.Mode = s.Mode

	result, err := engine.Run(strat)
	if err != nil {
		subLog.Warn().Err(err).Msg("candidate backtest failed")
		return nil
	}

	return &RankedResult{
		Candidate: candidate,
		Metrics:   result.Metrics,
		Objective: s.Objective.Score(result.Metrics),
	}
}
