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

package optimize_test

import (
	"math"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/advisor/optimize"
	"github.com/penny-vault/advisor/strategies/momentum"
	"github.com/penny-vault/advisor/strategies/trend"
)

var _ = Describe("Grid", func() {
	Describe("TrendGrid", func() {
		var candidates []optimize.Candidate

		BeforeEach(func() {
			candidates = optimize.TrendGrid()
		})

		It("prunes weight vectors that stray from unit sum", func() {
			// 3 thresholds x 3 vix limits x 5 unit-sum weight triples
			Expect(candidates).To(HaveLen(45))

			for _, c := range candidates {
				var params trend.Params
				Expect(json.Unmarshal(c.Args["params"], &params)).To(Succeed())
				Expect(math.Abs(params.WeightSum() - 1.0)).To(BeNumerically("<=", 0.01))
			}
		})

		It("numbers candidates in enumeration order", func() {
			for ii, c := range candidates {
				Expect(c.Index).To(Equal(ii))
			}
		})
	})

	Describe("MomentumGrid", func() {
		It("keeps the megacap slack inside the plausible band", func() {
			candidates := optimize.MomentumGrid()
			Expect(candidates).ToNot(BeEmpty())
			// far fewer than the full 6^4 enumeration survive
			Expect(len(candidates)).To(BeNumerically("<", 1296))

			for _, c := range candidates {
				var weights momentum.Weights
				Expect(json.Unmarshal(c.Args["weights"], &weights)).To(Succeed())
				Expect(weights.Mag7).To(BeNumerically(">=", 0.05))
				Expect(weights.Mag7).To(BeNumerically("<=", 0.40))
				Expect(weights.Sum()).To(BeNumerically("~", 1.0, 0.01))
			}
		})
	})

	Describe("GridFor", func() {
		It("selects the grid by shortcode", func() {
			Expect(optimize.GridFor(trend.Shortcode)).To(HaveLen(len(optimize.TrendGrid())))
			Expect(optimize.GridFor(momentum.Shortcode)).To(HaveLen(len(optimize.MomentumGrid())))
			Expect(optimize.GridFor("nope")).To(BeNil())
		})
	})
})
