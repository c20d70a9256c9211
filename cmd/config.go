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
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage advisor configuration",
}

type defaultConfig struct {
	Advisor struct {
		Ticker   string `toml:"ticker"`
		Strategy string `toml:"strategy"`
		Risk     string `toml:"risk"`
	} `toml:"advisor"`
	Database struct {
		URL string `toml:"url"`
	} `toml:"database"`
	Cache struct {
		RedisURL  string `toml:"redis_url"`
		LocalSize int    `toml:"local_size"`
	} `toml:"cache"`
	NATS struct {
		Server           string `toml:"server"`
		DecisionsSubject string `toml:"decisions_subject"`
		AlertsSubject    string `toml:"alerts_subject"`
	} `toml:"nats"`
	Telegram struct {
		Token  string `toml:"token"`
		ChatID string `toml:"chat_id"`
	} `toml:"telegram"`
	Schedule struct {
		ScoreCron    string `toml:"score_cron"`
		ValidateCron string `toml:"validate_cron"`
		WeeklyCron   string `toml:"weekly_cron"`
	} `toml:"schedule"`
	Log struct {
		Level  string `toml:"level"`
		Pretty bool   `toml:"pretty"`
	} `toml:"log"`
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "config.toml"
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			log.Fatal().Str("Path", path).Msg("config file already exists, use --force to overwrite")
		}

		var cfg defaultConfig
		cfg.Advisor.Ticker = "QQQ.US"
		cfg.Advisor.Strategy = "momentum"
		cfg.Advisor.Risk = "neutral"
		cfg.Cache.LocalSize = 64
		cfg.NATS.DecisionsSubject = "advisor.decisions"
		cfg.NATS.AlertsSubject = "advisor.alerts"
		cfg.Schedule.ScoreCron = "30 16 * * 1-5"
		cfg.Schedule.ValidateCron = "0 9 * * 1-5"
		cfg.Schedule.WeeklyCron = "0 10 * * 6"
		cfg.Log.Level = "info"
		cfg.Log.Pretty = true

		raw, err := toml.Marshal(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal default config")
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatal().Err(err).Str("Dir", dir).Msg("could not create config directory")
			}
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			log.Fatal().Err(err).Str("Path", path).Msg("could not write config file")
		}

		fmt.Printf("wrote %s\n", path)
	},
}
