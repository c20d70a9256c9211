// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package messenger

import (
	"github.com/goccy/go-json"
	"github.com/penny-vault/advisor/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// PublishDecision emits the day's decision record for downstream
// dashboards and recorders
func PublishDecision(decision *pipeline.Decision) error {
	subject := viper.GetString("nats.decisions_subject")

	raw, err := json.Marshal(decision)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize decision to JSON")
		return err
	}

	if _, err := jetStream.PublishAsync(subject, raw); err != nil {
		log.Error().Err(err).Str("Subject", subject).Msg("could not publish decision")
		return err
	}

	return nil
}

// PublishAlert emits a risk alert when any flag fired; callers gate on
// RiskFlags.Triggered
func PublishAlert(decision *pipeline.Decision) error {
	subject := viper.GetString("nats.alerts_subject")

	raw, err := json.Marshal(decision.RiskFlags)
	if err != nil {
		log.Error().Err(err).Msg("could not serialize risk flags to JSON")
		return err
	}

	if _, err := jetStream.PublishAsync(subject, raw); err != nil {
		log.Error().Err(err).Str("Subject", subject).Msg("could not publish risk alert")
		return err
	}

	return nil
}
