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

// Package provider implements the source connectors. Each connector performs
// fetch, parse, normalize, and per-record validation, producing candidate
// observations for the ingest pipeline. A record missing a required field is
// skipped individually; a whole-payload failure aborts the connector.
package provider

import (
	"strconv"
	"strings"
	"time"

	"github.com/instiflow/instiflow/ingest"
)

// All returns the active connectors in their fixed run order.
func All() []ingest.Connector {
	return []ingest.Connector{
		NewEdgar(),
		NewUSASpending(),
		NewOpenAlex(),
		NewArkFunds(),
	}
}

// parseDate parses the ISO calendar date format every source publishes.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

// parseAmount accepts numeric strings with thousands separators.
func parseAmount(value string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(value), ",", ""), 64)
}
