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
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/advisor/strategies"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List available strategies",
	Run: func(cmd *cobra.Command, args []string) {
		strategies.InitializeStrategyMap()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Shortcode", "Name", "Version", "Benchmark", "Description"})
		table.SetBorder(false)
		for _, info := range strategies.StrategyList {
			table.Append([]string{info.Shortcode, info.Name, info.Version, info.Benchmark, info.Description})
		}
		table.Render()
	},
}
