// Copyright 2024
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
package cmd

import (
	"context"

	"github.com/instiflow/instiflow/healthcheck"
	"github.com/instiflow/instiflow/ingest"
	"github.com/instiflow/instiflow/library"
	"github.com/instiflow/instiflow/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all source connectors once",
	Long: `The run sub-command executes every registered connector in sequence and
persists the observations they produce. A failing connector is logged and
skipped; it never blocks the connectors after it. Scheduling is left to cron
or an equivalent external scheduler.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("dbUrl"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to the data library")
		}
		defer myLibrary.Close()

		results := ingest.RunAll(ctx, myLibrary, provider.All())

		failed := 0
		inserted := 0
		for _, result := range results {
			if result.Err != nil {
				failed++
			}
			inserted += result.Counts.Inserted
		}

		log.Info().Int("Inserted", inserted).Int("FailedConnectors", failed).Msg("run summary")
		healthcheck.Ping(failed == 0)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
