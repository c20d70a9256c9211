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
)

// Provider retrieves daily OHLCV history for a symbol. Implementations treat
// network calls as blocking I/O with a caller-supplied timeout on ctx and
// never hold locks while blocked.
type Provider interface {
	DataType() string
	GetHistory(ctx context.Context, symbol string, begin, end time.Time) ([]PriceBar, error)
}

// ValidateBars checks the OHLC ordering invariant and ascending dates
func ValidateBars(bars []PriceBar) error {
	for idx := range bars {
		if !bars[idx].Valid() {
			return ErrInvalidBar
		}
		if idx > 0 && !bars[idx-1].Date.Before(bars[idx].Date) {
			return ErrBarsOutOfOrder
		}
	}
	return nil
}
