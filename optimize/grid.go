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

package optimize

import (
	"math"

	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/strategies/momentum"
	"github.com/penny-vault/advisor/strategies/trend"
)

// weight vectors off unit sum by more than this are pruned, not errors
const weightTolerance = 0.01

// Candidate is one parameter combination to be backtested. Index records
// the enumeration order so equal objective scores rank deterministically.
type Candidate struct {
	Index int
	Args  map[string]json.RawMessage
}

// TrendGrid enumerates the trend policy search space. Combinations whose
// three weights stray from unit sum are dropped during generation.
func TrendGrid() []Candidate {
	daysThresholds := []int{1, 2, 3}
	vixLimits := []float64{30, 35, 40}
	positionWeights := []float64{0.4, 0.5, 0.6}
	trendWeights := []float64{0.25, 0.3, 0.35}
	vixWeights := []float64{0.15, 0.2, 0.25}

	candidates := make([]Candidate, 0, 108)
	for _, dt := range daysThresholds {
		for _, vl := range vixLimits {
			for _, pw := range positionWeights {
				for _, tw := range trendWeights {
					for _, vw := range vixWeights {
						if math.Abs(pw+tw+vw-1.0) > weightTolerance {
							continue
						}
						params := trend.Params{
							DaysThreshold:  dt,
							VIXLimit:       vl,
							PositionWeight: pw,
							TrendWeight:    tw,
							VIXWeight:      vw,
						}
						raw, _ := json.Marshal(params)
						candidates = append(candidates, Candidate{
							Index: len(candidates),
							Args:  map[string]json.RawMessage{"params": raw},
						})
					}
				}
			}
		}
	}
	return candidates
}

// MomentumGrid enumerates weight vectors for the momentum policy. Four
// factor weights are chosen from a fixed menu and the megacap weight is
// the slack that brings the sum to one; vectors whose slack leaves the
// plausible band are dropped.
func MomentumGrid() []Candidate {
	options := []float64{0.10, 0.15, 0.20, 0.25, 0.30, 0.35}

	var candidates []Candidate
	for _, pm := range options {
		for _, vol := range options {
			for _, vix := range options {
				for _, bond := range options {
					mag7 := 1.0 - pm - vol - vix - bond
					if mag7 < 0.05 || mag7 > 0.40 {
						continue
					}
					weights := momentum.Weights{
						PriceMomentum: pm,
						Volume:        vol,
						VIX:           vix,
						Bond:          bond,
						Mag7:          round2(mag7),
					}
					raw, _ := json.Marshal(weights)
					candidates = append(candidates, Candidate{
						Index: len(candidates),
						Args:  map[string]json.RawMessage{"weights": raw},
					})
				}
			}
		}
	}
	return candidates
}

// GridFor returns the search space for a strategy shortcode, nil when the
// strategy has no defined grid
func GridFor(shortcode string) []Candidate {
	switch shortcode {
	case trend.Shortcode:
		return TrendGrid()
	case momentum.Shortcode:
		return MomentumGrid()
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
