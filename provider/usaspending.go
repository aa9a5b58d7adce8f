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
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// USASpending pulls recent federal contract awards from the USAspending
// award-search endpoint. Result payloads use loosely-typed fields whose names
// have drifted across API revisions, so extraction goes through gjson with
// alternate-key fallbacks instead of a fixed struct.
type USASpending struct {
	SearchURL  string
	PageSize   int
	WindowDays int
	Client     *resty.Client
}

func NewUSASpending() *USASpending {
	return &USASpending{
		SearchURL:  "https://api.usaspending.gov/api/v2/search/spending_by_award/",
		PageSize:   20,
		WindowDays: 30,
		Client:     NewClient(),
	}
}

func (usa *USASpending) Name() string {
	return "usaspending-awards"
}

func (usa *USASpending) Source() string {
	return "USAspending"
}

func (usa *USASpending) Fetch(ctx context.Context) ([]*data.Observation, int, error) {
	logger := zerolog.Ctx(ctx)

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -usa.WindowDays)

	request := map[string]any{
		"filters": map[string]any{
			"time_period": []map[string]string{{
				"start_date": startDate.Format("2006-01-02"),
				"end_date":   endDate.Format("2006-01-02"),
			}},
			"award_type_codes": []string{"A", "B", "C", "D"},
		},
		"fields": []string{
			"Award ID", "Recipient Name", "Start Date", "Award Amount",
			"Awarding Agency", "Award Type", "Description",
		},
		"page":  1,
		"limit": usa.PageSize,
		"sort":  "Start Date",
		"order": "desc",
	}

	resp, err := usa.Client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		Post(usa.SearchURL)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: award search: %v", ingest.ErrFetch, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, 0, fmt.Errorf("%w: award search returned status %d", ingest.ErrFetch, resp.StatusCode())
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("%w: award search returned invalid JSON", ingest.ErrParse)
	}

	results := gjson.GetBytes(body, "results")
	observations := make([]*data.Observation, 0, usa.PageSize)
	skipped := 0

	results.ForEach(func(_, award gjson.Result) bool {
		dateStr := firstString(award, "Start Date", "date_signed")
		awardDate, err := parseDate(dateStr)
		if dateStr == "" || err != nil {
			skipped++
			return true
		}

		recipient := firstString(award, "Recipient Name", "recipient.recipient_name", "recipient_name")
		if recipient == "" {
			skipped++
			return true
		}

		amount, ok := awardAmount(award)
		if !ok {
			logger.Debug().Str("Recipient", recipient).Msg("skipping award without a parseable amount")
			skipped++
			return true
		}

		agency := firstString(award, "Awarding Agency", "awarding_agency.toptier_name", "awarding_agency_name")
		if agency == "" {
			agency = "Unknown Agency"
		}

		observations = append(observations, &data.Observation{
			Award: &data.AwardObs{
				Date:      awardDate,
				Agency:    agency,
				Recipient: recipient,
				Company:   data.CompanyRef{Name: recipient},
				AmountUSD: amount,
				Program:   firstString(award, "Award Type", "type_description", "Description", "naics_description"),
				Source:    usa.Source(),
			},
		})
		return true
	})

	return observations, skipped, nil
}

// firstString is the field-alias lookup: the first present, non-empty path
// wins.
func firstString(result gjson.Result, paths ...string) string {
	for _, path := range paths {
		if value := result.Get(path); value.Exists() && value.String() != "" {
			return value.String()
		}
	}
	return ""
}

// awardAmount accepts a JSON number or a numeric string with thousands
// separators; a missing or null amount fails the record.
func awardAmount(award gjson.Result) (float64, bool) {
	for _, path := range []string{"Award Amount", "total_obligation"} {
		value := award.Get(path)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if value.Type == gjson.String {
			amount, err := parseAmount(value.String())
			if err != nil {
				continue
			}
			return amount, true
		}
		return value.Float(), true
	}
	return 0, false
}
