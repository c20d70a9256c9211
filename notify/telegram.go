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

// Telegram delivery for daily decisions and review summaries. Formatting
// lives here too so the message layout stays next to the transport that
// carries it.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/penny-vault/advisor/pipeline"
	"github.com/rs/zerolog/log"
)

const telegramAPI = "https://api.telegram.org"

var ErrTelegramStatus = errors.New("telegram API returned a failure status")

type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send posts a markdown message to the configured chat
func (t *Telegram) Send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("could not deliver telegram message")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Msg("telegram send failed")
		return ErrTelegramStatus
	}

	return nil
}

// FormatDecision renders the daily decision message
func FormatDecision(decision *pipeline.Decision) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*%s Daily Decision* %s\n\n", decision.Ticker, decision.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Close: $%.2f (%+.2f%%)\n", decision.MarketSnapshot.Close, decision.MarketSnapshot.ChangePct)
	fmt.Fprintf(&sb, "Strategy: %s\n", decision.Strategy)
	fmt.Fprintf(&sb, "Score: %.1f (%s)\n", decision.CompositeScore, decision.Regime)
	if decision.Signal != "" {
		fmt.Fprintf(&sb, "Signal: %s\n", decision.Signal)
	}
	fmt.Fprintf(&sb, "\n*Allocation*\n%s %.0f%% / Cash %.0f%%\n",
		decision.Ticker, decision.Allocation.RiskyPct, decision.Allocation.CashPct)
	fmt.Fprintf(&sb, "\nBias: %s (%s confidence)\n", decision.NextDayBias, decision.Confidence)
	fmt.Fprintf(&sb, "Stop loss: $%.2f\n", decision.RiskFlags.StopLossPrice)

	if decision.RiskFlags.Triggered() {
		sb.WriteString("\n*RISK ALERT*\n")
		if decision.RiskFlags.VIXAboveThreshold {
			fmt.Fprintf(&sb, "VIX above %.0f\n", pipeline.VIXAlertLevel)
		}
		if decision.RiskFlags.SingleDayDropAlert {
			fmt.Fprintf(&sb, "Single day drop beyond %.0f%%\n", pipeline.DropAlertPct)
		}
	}

	return sb.String()
}

// FormatValidation renders the next day validation message
func FormatValidation(v *pipeline.ValidationResult) string {
	verdict := "WRONG"
	if v.Correct {
		verdict = "CORRECT"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Prediction Check* %s\n\n", v.Date.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Predicted (%s): %s\n", v.PredictionDate.Format("2006-01-02"), v.Predicted)
	fmt.Fprintf(&sb, "Actual: %s (%+.2f%%)\n", v.Actual, v.ActualChange)
	fmt.Fprintf(&sb, "Verdict: %s\n", verdict)
	fmt.Fprintf(&sb, "\nHeld %.0f%% risky\nPortfolio return: %+.2f%%\n", v.PrevRiskyPct, v.PnLPct)
	return sb.String()
}

// FormatWeekly renders the weekend review message
func FormatWeekly(s *pipeline.WeeklySummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Weekly Review* %s ~ %s\n\n",
		s.Start.Format("2006-01-02"), s.End.Format("2006-01-02"))
	fmt.Fprintf(&sb, "Trading days: %d\n", s.TradingDays)
	fmt.Fprintf(&sb, "Week return: %+.2f%%\n", s.WeekReturnPct)
	fmt.Fprintf(&sb, "Benchmark: %+.2f%%\n", s.BenchmarkReturnPct)
	fmt.Fprintf(&sb, "Alpha: %+.2f%%\n", s.AlphaPct)
	fmt.Fprintf(&sb, "Win rate: %.1f%% (%dW %dL)\n", s.WinRatePct, s.WinDays, s.LoseDays)
	fmt.Fprintf(&sb, "P/L ratio: %.2f\n", s.ProfitLossRatio)
	fmt.Fprintf(&sb, "Max drawdown: %.2f%%\n", s.MaxDrawdownPct)
	fmt.Fprintf(&sb, "Prediction accuracy: %.1f%%\n", s.AccuracyPct)
	return sb.String()
}
