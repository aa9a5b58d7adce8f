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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/gocarina/gocsv"
	"github.com/instiflow/instiflow/data"
	"github.com/instiflow/instiflow/ingest"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// arkFieldAliases maps the lowercase header spellings the trade feed has
// shipped with onto the canonical column names the row struct expects. The
// table is consulted exactly once, on the header row, before decoding.
var arkFieldAliases = map[string]string{
	"date":      "date",
	"fund":      "fund",
	"direction": "direction",
	"ticker":    "ticker",
	"cusip":     "cusip",
	"company":   "company",
	"shares":    "shares",
	"value":     "value",
}

// ArkFunds downloads the disclosed trade CSV for one ETF symbol.
type ArkFunds struct {
	TradesURL string
	Symbol    string
	Client    *resty.Client
}

func NewArkFunds() *ArkFunds {
	symbol := viper.GetString("ark.symbol")
	if symbol == "" {
		symbol = "ARKK"
	}

	return &ArkFunds{
		TradesURL: "https://ark-funds.com/wp-content/uploads/funds-etf-csv",
		Symbol:    symbol,
		Client:    NewClient(),
	}
}

func (ark *ArkFunds) Name() string {
	return "ark-trades"
}

func (ark *ArkFunds) Source() string {
	return "ARK"
}

type arkTradeRow struct {
	Date      string `csv:"date"`
	Fund      string `csv:"fund"`
	Direction string `csv:"direction"`
	Ticker    string `csv:"ticker"`
	Company   string `csv:"company"`
	Value     string `csv:"value"`
}

func (ark *ArkFunds) Fetch(ctx context.Context) ([]*data.Observation, int, error) {
	logger := zerolog.Ctx(ctx)

	url := fmt.Sprintf("%s/%s_Trades.csv", ark.TradesURL, ark.Symbol)
	resp, err := ark.Client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: trade csv: %v", ingest.ErrFetch, err)
	}
	if resp.StatusCode() >= 300 {
		return nil, 0, fmt.Errorf("%w: trade csv returned status %d", ingest.ErrFetch, resp.StatusCode())
	}

	rows := []*arkTradeRow{}
	if err := gocsv.UnmarshalBytes(canonicalizeHeader(resp.Body()), &rows); err != nil {
		return nil, 0, fmt.Errorf("%w: trade csv: %v", ingest.ErrParse, err)
	}

	observations := make([]*data.Observation, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		tradeDate, err := parseDate(row.Date)
		if row.Date == "" || err != nil {
			skipped++
			continue
		}

		ticker := strings.TrimSpace(row.Ticker)
		if ticker == "" || strings.TrimSpace(row.Value) == "" {
			skipped++
			continue
		}

		value, err := parseAmount(row.Value)
		if err != nil {
			logger.Debug().Str("Ticker", ticker).Str("Value", row.Value).Msg("skipping trade with unparseable value")
			skipped++
			continue
		}

		companyName := strings.TrimSpace(row.Company)
		if companyName == "" {
			companyName = ticker
		}

		observations = append(observations, &data.Observation{
			FundTrade: &data.FundTradeObs{
				Date:      tradeDate,
				Fund:      ark.Symbol,
				Ticker:    ticker,
				Direction: strings.TrimSpace(row.Direction),
				ValueUSD:  value,
				Company:   data.CompanyRef{Name: companyName, Ticker: ticker},
				Source:    ark.Source(),
			},
		})
	}

	return observations, skipped, nil
}

// canonicalizeHeader rewrites the CSV header row through the field-alias
// table so alternate casings all decode into the same row shape. The header
// is split and re-emitted with a CSV reader/writer so quoted cells survive
// intact.
func canonicalizeHeader(payload []byte) []byte {
	end := bytes.IndexByte(payload, '\n')
	if end == -1 {
		return payload
	}

	cells, err := csv.NewReader(bytes.NewReader(payload[:end+1])).Read()
	if err != nil {
		return payload
	}
	for idx, cell := range cells {
		if canonical, ok := arkFieldAliases[strings.ToLower(strings.TrimSpace(cell))]; ok {
			cells[idx] = canonical
		}
	}

	rewritten := &bytes.Buffer{}
	rewritten.Grow(len(payload))
	writer := csv.NewWriter(rewritten)
	if err := writer.Write(cells); err != nil {
		return payload
	}
	writer.Flush()
	rewritten.Write(payload[end+1:])
	return rewritten.Bytes()
}
