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

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/penny-vault/advisor/common"
	"github.com/penny-vault/advisor/observability/opentelemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	cobra.OnInitialize(func() {
		common.SetupLogging()
	})

	// Database
	if err := viper.BindEnv("database.url", "DATABASE_URL"); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	if err := viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.url")
	}

	// Primary instrument and strategy selection
	rootCmd.PersistentFlags().String("ticker", "QQQ.US", "Primary instrument symbol")
	if err := viper.BindPFlag("advisor.ticker", rootCmd.PersistentFlags().Lookup("ticker")); err != nil {
		log.Panic().Err(err).Msg("could not bind advisor.ticker")
	}

	rootCmd.PersistentFlags().String("strategy", "momentum", "Strategy shortcode to score with")
	if err := viper.BindPFlag("advisor.strategy", rootCmd.PersistentFlags().Lookup("strategy")); err != nil {
		log.Panic().Err(err).Msg("could not bind advisor.strategy")
	}

	rootCmd.PersistentFlags().String("risk", "neutral", "Risk preference: conservative, neutral, or aggressive")
	if err := viper.BindPFlag("advisor.risk", rootCmd.PersistentFlags().Lookup("risk")); err != nil {
		log.Panic().Err(err).Msg("could not bind advisor.risk")
	}

	// Cache
	if err := viper.BindEnv("cache.redis_url", "REDIS_URL"); err != nil {
		log.Panic().Err(err).Msg("could not bind cache.redis_url")
	}
	rootCmd.PersistentFlags().String("redis-url", "", "Redis server for the shared history cache; blank runs local only")
	if err := viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("redis-url")); err != nil {
		log.Panic().Err(err).Msg("could not bind cache.redis_url")
	}

	// NATS
	if err := viper.BindEnv("nats.server", "NATS_URL"); err != nil {
		log.Panic().Err(err).Msg("could not bind nats.server")
	}
	rootCmd.PersistentFlags().String("nats-server", "", "NATS server to publish decisions to; blank disables publishing")
	if err := viper.BindPFlag("nats.server", rootCmd.PersistentFlags().Lookup("nats-server")); err != nil {
		log.Panic().Err(err).Msg("could not bind nats.server")
	}

	// Telegram
	if err := viper.BindEnv("telegram.token", "TELEGRAM_TOKEN"); err != nil {
		log.Panic().Err(err).Msg("could not bind telegram.token")
	}
	if err := viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID"); err != nil {
		log.Panic().Err(err).Msg("could not bind telegram.chat_id")
	}

	// Logging configuration
	if err := viper.BindEnv("log.level", "ADVISOR_LOG_LEVEL"); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.level")
	}

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	if err := viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.report_caller")
	}

	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	if err := viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.output")
	}

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs for human consumption")
	if err := viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty")); err != nil {
		log.Panic().Err(err).Msg("could not bind log.pretty")
	}

	// Tracing
	if err := viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT"); err != nil {
		log.Panic().Err(err).Msg("could not bind otlp.endpoint")
	}
}

var traceShutdown func(context.Context) error

var rootCmd = &cobra.Command{
	Use:     "advisor",
	Version: common.CurrentVersion.String(),
	Short:   "advisor scores a daily equity allocation for one instrument",
	Long: `A daily allocation advisor that scores market factors, maps the composite
score to an equity vs cash split, and supports backtesting and parameter
optimization of its scoring strategies.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetString("otlp.endpoint") == "" {
			return
		}
		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Warn().Err(err).Msg("could not setup tracing")
			return
		}
		traceShutdown = shutdown
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if traceShutdown != nil {
			if err := traceShutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("could not flush traces")
			}
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
