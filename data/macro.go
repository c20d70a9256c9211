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

	"github.com/rs/zerolog/log"
)

// macro series symbols as the provider knows them
const (
	SymbolVIX   = "VIXY.US"
	SymbolUS10Y = "10USY.B"
	SymbolUS2Y  = "2USY.B"
	SymbolDXY   = "DX.F"
)

// FetchMacro assembles a macro snapshot from the provider. Each field falls
// back to its long-run typical value independently, so a single dead series
// never blocks the daily score.
func (m *Manager) FetchMacro(ctx context.Context, asOf time.Time) MacroSnapshot {
	snap := DefaultMacroSnapshot()
	begin := asOf.AddDate(0, 0, -14)

	if bars, err := m.FetchHistory(ctx, SymbolVIX, begin, asOf); err == nil && len(bars) > 0 {
		snap.VIX = bars[len(bars)-1].Close
		if len(bars) >= 2 && bars[len(bars)-2].Close != 0 {
			prev := bars[len(bars)-2].Close
			snap.VIXChangePct = (snap.VIX - prev) / prev * 100
		}
	} else {
		log.Warn().Err(err).Str("Symbol", SymbolVIX).Msg("macro series unavailable, using fallback")
	}

	if bars, err := m.FetchHistory(ctx, SymbolUS10Y, begin, asOf); err == nil && len(bars) > 0 {
		snap.US10Y = bars[len(bars)-1].Close
		if len(bars) >= 2 {
			snap.US10YChange = snap.US10Y - bars[len(bars)-2].Close
		}
	} else {
		log.Warn().Err(err).Str("Symbol", SymbolUS10Y).Msg("macro series unavailable, using fallback")
	}

	if bars, err := m.FetchHistory(ctx, SymbolUS2Y, begin, asOf); err == nil && len(bars) > 0 {
		snap.US2Y = bars[len(bars)-1].Close
	} else {
		log.Warn().Err(err).Str("Symbol", SymbolUS2Y).Msg("macro series unavailable, using fallback")
	}

	if bars, err := m.FetchHistory(ctx, SymbolDXY, begin, asOf); err == nil && len(bars) > 0 {
		snap.DXY = bars[len(bars)-1].Close
	} else {
		log.Warn().Err(err).Str("Symbol", SymbolDXY).Msg("macro series unavailable, using fallback")
	}

	return snap
}
