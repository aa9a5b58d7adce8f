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
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
	"github.com/instiflow/instiflow/data"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Connector is a source-specific fetch/parse/normalize/validate unit. Fetch
// returns the validated candidate observations, the number of individual
// records skipped during validation, and an error classified as ErrFetch or
// ErrParse when the whole invocation failed.
type Connector interface {
	Name() string
	Source() string
	Fetch(ctx context.Context) ([]*data.Observation, int, error)
}

// Result is the per-connector outcome reported by RunAll.
type Result struct {
	Connector string
	Source    string
	Counts    Counts
	Duration  time.Duration
	Err       error
}

// RunAll executes the connectors in order, one at a time. Every failure is
// caught at the connector boundary: a failed connector contributes zero net
// changes and the next connector still runs. RunAll itself always completes.
func RunAll(ctx context.Context, db DB, connectors []Connector) []Result {
	runID := uuid.New()
	runLogger := log.With().Str("RunID", runID.String()).Logger()
	runLogger.Info().Int("NumConnectors", len(connectors)).Msg("starting ingestion run")

	results := make([]Result, 0, len(connectors))
	for _, connector := range connectors {
		result := runConnector(ctx, db, connector, runLogger)
		results = append(results, result)
	}

	runLogger.Info().Msg("ingestion run complete")
	return results
}

func runConnector(ctx context.Context, db DB, connector Connector, runLogger zerolog.Logger) Result {
	startTime := time.Now()
	logger := runLogger.With().Str("Connector", connector.Name()).Str("Source", connector.Source()).Logger()
	ctx = logger.WithContext(ctx)

	result := Result{Connector: connector.Name(), Source: connector.Source()}

	observations, skippedInvalid, err := connector.Fetch(ctx)
	result.Counts.SkippedInvalid = skippedInvalid
	if err != nil {
		result.Err = err
		result.Duration = time.Since(startTime)
		logger.Error().Err(err).Msg("connector aborted, no records persisted")
		return result
	}

	counts, err := Save(ctx, db, observations)
	counts.SkippedInvalid = skippedInvalid
	result.Counts = counts
	result.Err = err
	result.Duration = time.Since(startTime)

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Int("Attempted", counts.Attempted).
		Int("Inserted", counts.Inserted).
		Int("SkippedInvalid", counts.SkippedInvalid).
		Int("SkippedDuplicate", counts.SkippedDuplicate).
		Str("RunTime", durafmt.Parse(result.Duration).LimitFirstN(2).String()).
		Msg("connector finished")

	return result
}
