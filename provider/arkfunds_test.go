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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/instiflow/instiflow/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the published feed capitalizes its headers; the alias table maps them back
const arkTradesCSV = "Date,Fund,Direction,Ticker,CUSIP,Company,Shares,Value\r\n" +
	"2024-05-20,ARKK,Buy,TSLA,88160R101,TESLA INC,1000,\"123,456.78\"\r\n" +
	"2024-05-20,ARKK,Sell,COIN,19260Q107,,250,20000\r\n" +
	",ARKK,Buy,ROKU,77543R102,ROKU INC,100,5000\r\n" +
	"2024-05-21,ARKK,Buy,,00000000,NO TICKER CO,10,100\r\n" +
	"2024-05-21,ARKK,Sell,PLTR,69608A108,PALANTIR TECHNOLOGIES,500,not-a-number\r\n"

func testArkFunds(t *testing.T, payload string, status int) *ArkFunds {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ARKK_Trades.csv", r.URL.Path)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	ark := NewArkFunds()
	ark.TradesURL = server.URL
	ark.Symbol = "ARKK"
	return ark
}

func TestArkFundsFetch(t *testing.T) {
	ark := testArkFunds(t, arkTradesCSV, http.StatusOK)

	observations, skipped, err := ark.Fetch(context.Background())
	require.NoError(t, err)

	// missing date, missing ticker, and an unparseable value each skip a row
	assert.Equal(t, 3, skipped)
	require.Len(t, observations, 2)

	tesla := observations[0].FundTrade
	require.NotNil(t, tesla)
	assert.Equal(t, "ARKK", tesla.Fund)
	assert.Equal(t, "TSLA", tesla.Ticker)
	assert.Equal(t, "Buy", tesla.Direction)
	assert.Equal(t, 123456.78, tesla.ValueUSD)
	assert.Equal(t, "TESLA INC", tesla.Company.Name)
	assert.Equal(t, "2024-05-20", tesla.Date.Format("2006-01-02"))
	assert.Equal(t, "ARK", tesla.Source)

	// a row without a company name keys its company on the ticker
	coin := observations[1].FundTrade
	assert.Equal(t, "COIN", coin.Company.Name)
	assert.Equal(t, "COIN", coin.Company.Ticker)
}

func TestArkFundsFetchErrors(t *testing.T) {
	ark := testArkFunds(t, "", http.StatusNotFound)

	_, _, err := ark.Fetch(context.Background())
	assert.ErrorIs(t, err, ingest.ErrFetch)
}

func TestCanonicalizeHeader(t *testing.T) {
	rewritten := canonicalizeHeader([]byte("Date,\"Fund\",DIRECTION,Ticker ,CUSIP,Company,Shares,Value\r\nrow"))
	assert.Equal(t, "date,fund,direction,ticker,cusip,company,shares,value\nrow", string(rewritten))

	// a quoted header cell containing a comma stays one cell
	rewritten = canonicalizeHeader([]byte("Date,\"Company, Inc\",Value\nrow"))
	assert.Equal(t, "date,\"Company, Inc\",value\nrow", string(rewritten))

	// a payload without a newline is left untouched
	assert.Equal(t, "Date,Fund", string(canonicalizeHeader([]byte("Date,Fund"))))
}
